// Package cli implements the crashetl command line: convert a CAS crash
// export once, serve the result over HTTP, or validate the inputs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crash-data-etl/internal/config"
)

// inputFlags override the matching environment settings when set.
type inputFlags struct {
	crashFile    string
	causeFile    string
	causeMode    string
	streetFile   string
	holidaysFile string
	factorsFile  string
	regionsFile  string
	outputFile   string
	timeZone     string
	twilight     string
	workers      int
}

// NewRootCommand builds the crashetl command tree.
func NewRootCommand() *cobra.Command {
	flags := &inputFlags{}

	root := &cobra.Command{
		Use:   "crashetl",
		Short: "Decode and enrich NZTA crash records into GeoJSON",
		Long: `crashetl reads a CAS crash export, decodes its coded fields, projects
NZTM coordinates to longitude/latitude and adds time zone, daylight, moon
phase and holiday enrichment. Located crashes are written as a GeoJSON
FeatureCollection and optionally published to Kafka and PostGIS.

Settings come from environment variables; flags override them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.crashFile, "crash-file", "", "CAS crash export CSV (CRASH_DATA_FILE)")
	pf.StringVar(&flags.causeFile, "cause-file", "", "cause decoder table, CSV or JSON (CAUSE_DECODER_FILE)")
	pf.StringVar(&flags.causeMode, "cause-mode", "", "cause decoder mode: primary or legacy (CAUSE_DECODER_MODE)")
	pf.StringVar(&flags.streetFile, "street-file", "", "street type abbreviations CSV (STREET_DECODER_FILE)")
	pf.StringVar(&flags.holidaysFile, "holidays-file", "", "holiday periods YAML (HOLIDAYS_FILE)")
	pf.StringVar(&flags.factorsFile, "factors-file", "", "factor code sets YAML (FACTORS_FILE)")
	pf.StringVar(&flags.regionsFile, "regions-file", "", "region boundaries GeoJSON (REGIONS_FILE)")
	pf.StringVarP(&flags.outputFile, "out", "o", "", "GeoJSON output path (OUTPUT_FILE)")
	pf.StringVar(&flags.timeZone, "timezone", "", "IANA zone crash times are recorded in (TIMEZONE)")
	pf.StringVar(&flags.twilight, "twilight", "", "daylight threshold: civil, nautical or astronomical (TWILIGHT)")
	pf.IntVar(&flags.workers, "workers", 0, "concurrent row transforms (WORKERS)")

	root.AddCommand(
		newConvertCommand(flags),
		newServeCommand(flags),
		newValidateCommand(flags),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the environment, applies any flags the user set and
// checks that every required input path is present.
func loadConfig(cmd *cobra.Command, f *inputFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	strs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"crash-file", f.crashFile, &cfg.CrashDataFile},
		{"cause-file", f.causeFile, &cfg.CauseDecoderFile},
		{"cause-mode", f.causeMode, &cfg.CauseDecoderMode},
		{"street-file", f.streetFile, &cfg.StreetDecoderFile},
		{"holidays-file", f.holidaysFile, &cfg.HolidaysFile},
		{"factors-file", f.factorsFile, &cfg.FactorsFile},
		{"regions-file", f.regionsFile, &cfg.RegionsFile},
		{"out", f.outputFile, &cfg.OutputFile},
		{"timezone", f.timeZone, &cfg.TimeZone},
		{"twilight", f.twilight, &cfg.Twilight},
	}
	for _, s := range strs {
		if changed(s.name) {
			*s.dst = s.src
		}
	}
	if changed("workers") {
		if f.workers <= 0 {
			return nil, fmt.Errorf("--workers must be positive, got %d", f.workers)
		}
		cfg.Workers = f.workers
	}
	if cfg.CauseDecoderMode != "primary" && cfg.CauseDecoderMode != "legacy" {
		return nil, fmt.Errorf("cause decoder mode %q must be primary or legacy", cfg.CauseDecoderMode)
	}
	if err := cfg.ValidateInputs(); err != nil {
		return nil, err
	}
	return cfg, nil
}
