package main

import (
	"context"
	"github.com/alexandre-normand/steward"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/gateway"
	"github.com/alexandre-normand/steward/session"
	"github.com/alexandre-normand/steward/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func newRunCmd(loadConfig func() (*viper.Viper, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot and the configuration gateway until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, v)
		},
	}
}

func run(ctx context.Context, v *viper.Viper) (err error) {
	if v.GetString(config.TokenKey) == "" {
		return errors.Errorf("%s is required", config.TokenKey)
	}

	verifier, err := session.NewVerifier([]byte(v.GetString(config.GatewaySessionSecretKey)))
	if err != nil {
		return errors.Wrap(err, config.GatewaySessionSecretKey)
	}

	logger := steward.NewSLogger(newLogger(), v.GetBool(config.DebugKey))
	if !v.GetBool(config.DebugKey) {
		gin.SetMode(gin.ReleaseMode)
	}

	tel, err := telemetry.New(name)
	if err != nil {
		return err
	}
	tel.Install()
	defer tel.Shutdown(context.Background())

	cs, err := openStore(v, logger)
	if err != nil {
		return err
	}

	bot, err := steward.NewBot(name, v, steward.OptionLog(newLogger()), steward.OptionMeter(tel.Meter())).
		WithStore(cs).
		WithCloser(cs).
		Build()
	if err != nil {
		cs.Close()
		return err
	}
	defer bot.Close()

	gw, err := gateway.New(name, v, cs, bot, verifier, gateway.OptionLogger(logger), gateway.OptionMetricsHandler(tel.Handler()))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		return gw.Run(gctx)
	})

	// The bot returning (invalid auth) cancels gctx which stops the gateway
	if err = g.Wait(); err != nil {
		logger.Printf("Stopped with error: %v\n", err)
		return err
	}

	return nil
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, name+": ", log.Lshortfile|log.LstdFlags)
}
