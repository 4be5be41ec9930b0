package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"quiz-results-service/internal/config"
	"quiz-results-service/internal/infra/importer"
)

// NewImportCmd loads results from a CSV or JSON file into the store.
func NewImportCmd(configPath *string, logger *slog.Logger) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import results from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("import needs postgres.url; an in-memory store would be discarded on exit")
			}
			raws, err := importer.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}
			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			saved := 0
			for _, raw := range raws {
				if _, err := b.service.SaveResult(ctx, raw, notify); err != nil {
					return fmt.Errorf("import %s: %w", raw.Date, err)
				}
				saved++
			}
			logger.Info("import finished", slog.String("file", args[0]), slog.Int("results", saved))
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "mark change events as notifications")
	return cmd
}
