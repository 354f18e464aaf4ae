package main

import (
	"fmt"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"time"
)

const defaultTokenTTL = 24 * time.Hour

type tokenFlags struct {
	memberID   string
	memberName string
	adminOf    []string
	memberOf   []string
	ttl        time.Duration
}

func newTokenCmd(loadConfig func() (*viper.Viper, error)) *cobra.Command {
	var flags tokenFlags

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a gateway session token for a member",
		Long: `Mint a gateway session token signed with the configured session secret. The token is
accepted as a bearer token or as the session cookie by the configuration gateway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig()
			if err != nil {
				return err
			}

			token, err := mintToken(v, flags)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.memberID, "member", "", "member id (required)")
	cmd.Flags().StringVar(&flags.memberName, "name", "", "member display name")
	cmd.Flags().StringSliceVar(&flags.adminOf, "admin-of", nil, "ids of the communities the member administers")
	cmd.Flags().StringSliceVar(&flags.memberOf, "member-of", nil, "ids of the communities the member belongs to without administering them")
	cmd.Flags().DurationVar(&flags.ttl, "ttl", defaultTokenTTL, "validity of the token")
	cmd.MarkFlagRequired("member")

	return cmd
}

func mintToken(v *viper.Viper, flags tokenFlags) (token string, err error) {
	issuer, err := session.NewIssuer([]byte(v.GetString(config.GatewaySessionSecretKey)))
	if err != nil {
		return "", err
	}

	communities := make([]session.Community, 0, len(flags.adminOf)+len(flags.memberOf))
	for _, id := range flags.adminOf {
		communities = append(communities, session.Community{ID: id, Name: id, Admin: true})
	}

	for _, id := range flags.memberOf {
		communities = append(communities, session.Community{ID: id, Name: id})
	}

	return issuer.Issue(session.Identity{MemberID: flags.memberID, Name: flags.memberName, Communities: communities}, flags.ttl)
}
