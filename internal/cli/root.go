package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quiz-results-service/internal/config"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = config.DefaultPath
	}

	cmd := &cobra.Command{
		Use:          "quiz-results",
		Short:        "Daily quiz results, statistics and live updates",
		SilenceUsage: true,
	}

	logger := newLogger()
	cmd.PersistentFlags().StringVar(&port, "port", "", "port to listen on (overrides config and PORT)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port, logger))
	cmd.AddCommand(NewMigrateCmd(&configPath, logger))
	cmd.AddCommand(NewImportCmd(&configPath, logger))
	cmd.AddCommand(NewStatsCmd(&configPath, logger))
	cmd.AddCommand(NewTokenCmd(&configPath))
	return cmd
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
