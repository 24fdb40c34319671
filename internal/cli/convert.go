package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crash-data-etl/internal/observability"
	"github.com/couchcryptid/crash-data-etl/internal/pipeline"
)

func newConvertCommand(flags *inputFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Convert a crash export to GeoJSON once and exit",
		Long: `Convert reads every row of the crash export, writes the located crashes to
the GeoJSON output file and publishes to any configured Kafka topic or
PostGIS table. A summary of the run is printed on completion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg)
			metrics := observability.NewUnregisteredMetrics()

			a, err := newApp(cmd.Context(), cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.pipeline.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("convert %s: %w", cfg.CrashDataFile, err)
			}
			printSummary(cmd.OutOrStdout(), a, sum)
			return nil
		},
	}
}

func printSummary(w io.Writer, a *app, sum pipeline.Summary) {
	fmt.Fprintf(w, "run %s\n", a.runID)
	fmt.Fprintf(w, "  %-18s %d\n", "rows read", sum.RowsRead)
	fmt.Fprintf(w, "  %-18s %d\n", "rows skipped", sum.RowsSkipped)
	fmt.Fprintf(w, "  %-18s %d\n", "records", sum.Records)
	fmt.Fprintf(w, "  %-18s %d\n", "located", sum.Located)
	fmt.Fprintf(w, "  %-18s %d\n", "unlocated", sum.Unlocated)
	fmt.Fprintf(w, "  %-18s %d\n", "malformed causes", sum.MalformedCauses)
	fmt.Fprintf(w, "  %-18s %s\n", "output", a.cfg.OutputFile)
	fmt.Fprintf(w, "  %-18s %s\n", "duration", sum.Duration.Round(time.Millisecond))
}
