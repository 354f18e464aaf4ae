// Command steward runs the community bot and its configuration gateway
package main

import (
	"fmt"
	"github.com/alexandre-normand/steward/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

const name = "steward"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           name,
		Short:         "Community bot for slack with a web configuration gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file (yaml, json or toml)")

	loadConfig := func() (*viper.Viper, error) {
		return config.Load(configPath)
	}

	root.AddCommand(newRunCmd(loadConfig), newTokenCmd(loadConfig))

	return root
}
