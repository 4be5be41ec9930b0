package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/config"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/infra/importer"
	"quiz-results-service/internal/statistics"
)

// NewStatsCmd prints the statistics summary for the stored results, or for
// a results file when --file is given.
func NewStatsCmd(configPath *string, logger *slog.Logger) *cobra.Command {
	var (
		window int
		file   string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print result statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var info *domain.StatisticsInfo
			if file != "" {
				results, err := readResults(file)
				if err != nil {
					return err
				}
				if window <= 0 {
					window = statistics.DefaultTrendWindow
				}
				info = statistics.CalculateStatistics(results, window)
			} else {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				if cfg.Postgres.URL == "" {
					return errNoDurableStore
				}
				b, err := openBackend(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer b.Close()
				if info, err = b.service.Statistics(cmd.Context(), window); err != nil {
					return err
				}
			}
			return printStatistics(cmd.OutOrStdout(), info, time.Now().Year())
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "number of quizzes in the trend (0 uses the configured default)")
	cmd.Flags().StringVar(&file, "file", "", "read results from a CSV or JSON file instead of the store")
	return cmd
}

var errNoDurableStore = errors.New("stats needs postgres.url, or --file to read results from a file")

func readResults(path string) ([]domain.Result, error) {
	raws, err := importer.ReadFile(path)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Result, 0, len(raws))
	for _, raw := range raws {
		r, err := raw.ToResult()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw.Date, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func printStatistics(out io.Writer, info *domain.StatisticsInfo, currentYear int) error {
	if info == nil {
		_, err := fmt.Fprintln(out, "Ingen resultater ennå")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Antall quizer\t%d\n", info.TotalNumberOfQuizzes)
	fmt.Fprintf(tw, "Gjennomsnitt\t%.1f\n", info.AverageScore)
	fmt.Fprintf(tw, "Median\t%.1f\n", info.MedianScore)
	fmt.Fprintf(tw, "Alle rette\t%d\n", info.PerfectCount)
	fmt.Fprintf(tw, "Siste alle rette\t%s\n", dayLabel(info.LastBestDay, currentYear))
	fmt.Fprintf(tw, "Siste dårligste\t%s\n", dayLabel(info.LastWorstDay, currentYear))

	fmt.Fprintln(tw, "\nSnitt per ukedag")
	writeRows(tw, info.AverageByWeekday)
	fmt.Fprintln(tw, "\nSnitt per måned")
	writeRows(tw, info.AverageByMonth)

	fmt.Fprintf(tw, "\nSiste %d quizer\n", len(info.TrendLastQuizzes))
	for _, p := range info.TrendLastQuizzes {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", p.Label, p.Value, p.Colour)
	}
	return tw.Flush()
}

func writeRows(w io.Writer, rows []domain.TableRow) {
	for _, row := range rows {
		fmt.Fprintf(w, "  %s\t%.1f\t(%d)\n", row.Label, row.Value, row.Count)
	}
}

func dayLabel(r *domain.Result, currentYear int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d/%d)", calendar.FormatShort(r.Date, currentYear), r.Score, r.Total)
}
