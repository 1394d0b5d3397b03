package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	fxmodules "squad-tracker/internal/fx"
	"squad-tracker/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var flagEnv = map[string]string{
	"roster-url":  "ROSTER_CSV_URL",
	"data-file":   "DATA_FILE",
	"history-dir": "HISTORY_DIR",
	"log-level":   "LOG_LEVEL",
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "syncer",
		Short:         "Synchronize the squad roster and publish the tracker artifact",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().String("roster-url", "", "roster feed CSV URL (overrides ROSTER_CSV_URL)")
	rootCmd.Flags().String("data-file", "", "artifact output path (overrides DATA_FILE)")
	rootCmd.Flags().String("history-dir", "", "history directory (overrides HISTORY_DIR)")
	rootCmd.Flags().String("log-level", "", "log level (overrides LOG_LEVEL)")

	if err := rootCmd.Execute(); err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Flags override the environment, which the fx graph reads from.
	for flag, env := range flagEnv {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			os.Setenv(env, v)
		}
	}

	var p *pipeline.Pipeline
	app := fx.New(
		fxmodules.Module,
		fx.Populate(&p),
		fx.NopLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	return p.Run(ctx)
}
