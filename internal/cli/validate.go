package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crash-data-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/region"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/tables"
	"github.com/couchcryptid/crash-data-etl/internal/config"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
	"github.com/couchcryptid/crash-data-etl/internal/observability"
)

// Rough bounds for the mainland and Stewart Island, plus the Chathams east
// of the antimeridian.
const (
	minLat, maxLat = -53.0, -29.0
	minLon         = 165.0
	maxChathamLon  = -175.0
)

func inNewZealand(p domain.GeoPoint) bool {
	if p.Lat < minLat || p.Lat > maxLat {
		return false
	}
	return p.Lon >= minLon || p.Lon <= maxChathamLon
}

// maxReported caps the per-phase error lines printed.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCommand(flags *inputFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check decoder tables and a crash export without writing output",
		Long: `Validate loads the decoder tables and reads every crash row, reporting
malformed rows, duplicate crash IDs, unknown or malformed cause codes and
locations that fall outside New Zealand or every known region. It exits
non-zero when any phase fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runValidate(cmd.Context(), cmd.OutOrStdout(), cfg, observability.NewLogger(cfg))
		},
	}
}

func runValidate(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	fmt.Fprintln(out, "=== Crash Data Validation ===")
	fmt.Fprintln(out)

	tbl, err := tables.Load(cfg, logger)
	if err != nil {
		return fmt.Errorf("load decoder tables: %w", err)
	}

	var regions *region.Locator
	if cfg.RegionsFile != "" {
		if regions, err = region.Load(cfg.RegionsFile); err != nil {
			return fmt.Errorf("load regions: %w", err)
		}
	}

	raw, err := readAllRows(ctx, cfg.CrashDataFile, logger)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.CrashDataFile, err)
	}

	rowsPhase, rows := validateRows(raw)
	phases := []*phase{
		validateTables(tbl),
		rowsPhase,
		validateCodes(rows, tbl),
		validateLocations(rows, tbl, regions),
	}

	failed := 0
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			failed++
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d read, %d normalized\n", len(raw), len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d phases", failed, len(phases))
	}
	fmt.Fprintln(out, "\nAll phases passed.")
	return nil
}

func readAllRows(ctx context.Context, path string, logger *slog.Logger) ([]domain.RawRow, error) {
	src, err := csvsource.Open(path, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var rows []domain.RawRow
	for {
		batch, err := src.ExtractBatch(ctx, 500)
		rows = append(rows, batch...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func validateTables(tbl *domain.DecoderTables) *phase {
	p := &phase{name: "Phase 1: Decoder tables"}

	if len(tbl.StreetTypes) == 0 {
		p.errorf("street type table is empty")
	}
	for abbrev, full := range tbl.StreetTypes {
		if full == "" {
			p.errorf("street type %q has no expansion", abbrev)
		}
	}
	for i := 1; i < len(tbl.Holidays); i++ {
		prev, cur := tbl.Holidays[i-1], tbl.Holidays[i]
		if !cur.Start.After(prev.End) {
			p.errorf("holiday %q overlaps %q", cur.Name, prev.Name)
		}
	}
	for name, set := range tbl.Factors {
		if len(set) == 0 {
			p.errorf("factor %s has no cause codes", name)
		}
	}
	return p
}

// validateRows normalizes every row and returns those that succeed.
func validateRows(raw []domain.RawRow) (*phase, []domain.CrashRow) {
	p := &phase{name: "Phase 2: Crash rows"}
	rows := make([]domain.CrashRow, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for i, r := range raw {
		// Data lines start at 2, after the header.
		line := i + 2
		row, err := domain.NormalizeRow(r)
		if err != nil {
			p.errorf("line %d: %v", line, err)
			continue
		}
		if row.CrashID == "" {
			p.errorf("line %d: missing crash id", line)
		} else if first, dup := seen[row.CrashID]; dup {
			p.errorf("line %d: crash %s duplicates line %d", line, row.CrashID, first)
		} else {
			seen[row.CrashID] = line
		}
		if row.Date.IsZero() {
			p.errorf("line %d: crash %s has no parseable date", line, row.CrashID)
		}
		rows = append(rows, row)
	}
	return p, rows
}

func validateCodes(rows []domain.CrashRow, tbl *domain.DecoderTables) *phase {
	p := &phase{name: "Phase 3: Coded fields"}
	quiet := slog.New(slog.DiscardHandler)

	for _, row := range rows {
		parties, _, err := domain.ParseParties(row.Vehicles)
		if err != nil {
			p.errorf("crash %s: %v", row.CrashID, err)
		}
		groups, malformed := domain.GroupCauses(row.Causes, quiet)
		for _, tok := range malformed {
			p.errorf("crash %s: malformed cause token %q", row.CrashID, tok)
		}
		if err == nil {
			for _, tok := range groups.DropUnknownParties(parties, quiet) {
				p.errorf("crash %s: cause %q cites a party with no vehicle", row.CrashID, tok)
			}
		}
		for _, party := range groups.Parties() {
			for _, code := range groups[party] {
				if _, _, err := tbl.Causes.DecodeCause(code); err != nil {
					p.errorf("crash %s party %s: %v", row.CrashID, party, err)
				}
			}
		}
		if _, err := domain.DecodeLight(row.Light); err != nil {
			p.errorf("crash %s: %v", row.CrashID, err)
		}
		if _, err := domain.DecodeWeather(row.Weather); err != nil {
			p.errorf("crash %s: %v", row.CrashID, err)
		}
		if _, err := domain.DecodeJunction(row.Junction); err != nil {
			p.errorf("crash %s: %v", row.CrashID, err)
		}
	}
	return p
}

func validateLocations(rows []domain.CrashRow, tbl *domain.DecoderTables, regions *region.Locator) *phase {
	p := &phase{name: "Phase 4: Locations"}

	for _, row := range rows {
		loc := domain.Locate(row.Authority, row.Easting, row.Northing, tbl.Correction)
		if loc == nil {
			continue
		}
		if !inNewZealand(*loc) {
			p.errorf("crash %s: %s lies outside New Zealand", row.CrashID, loc)
			continue
		}
		if regions != nil {
			if _, ok := regions.Region(*loc); !ok {
				p.errorf("crash %s: %s lies outside every region", row.CrashID, loc)
			}
		}
	}
	return p
}
