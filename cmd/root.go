package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/sneakerzone/internal/constants"
	"github.com/Alturino/sneakerzone/internal/log"
)

func Start() {
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str(log.KeyAppName, constants.AppMainSneakerZone).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	configName := constants.AppStorefront
	rootCmd := &cobra.Command{Use: constants.AppMainSneakerZone}
	rootCmd.PersistentFlags().
		StringVarP(&configName, "config", "c", configName, "config file name under ./env without extension")

	commands := []*cobra.Command{
		{
			Use:   constants.AppStorefront,
			Short: "Run the storefront http server",
			Run: func(cmd *cobra.Command, args []string) {
				runStorefront(cmd.Context(), configName)
			},
		},
		{
			Use:   "migrate",
			Short: "Apply session storage migrations to postgres",
			Run: func(cmd *cobra.Command, args []string) {
				runMigrate(cmd.Context(), configName)
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
