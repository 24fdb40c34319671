package tables

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crash-data-etl/internal/config"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// Load reads every decoder table named by cfg. Holidays and factors are
// optional; cause and street tables are not.
func Load(cfg *config.Config, logger *slog.Logger) (*domain.DecoderTables, error) {
	causes, err := LoadCauseDecoder(cfg.CauseDecoderFile, cfg.CauseDecoderMode)
	if err != nil {
		return nil, err
	}
	streets, err := LoadStreetTypes(cfg.StreetDecoderFile)
	if err != nil {
		return nil, err
	}

	tables, err := domain.NewDecoderTables(causes, streets, nil)
	if err != nil {
		return nil, err
	}

	if cfg.TimeZone != "" && cfg.TimeZone != domain.DefaultTimeZone {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("time zone %s: %w: %w", cfg.TimeZone, domain.ErrTableLoad, err)
		}
		tables.Location = loc
	}
	if tables.Twilight, err = domain.ParseTwilight(cfg.Twilight); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTableLoad, err)
	}

	if cfg.HolidaysFile != "" {
		if tables.Holidays, err = LoadHolidays(cfg.HolidaysFile, tables.Location); err != nil {
			return nil, err
		}
	}
	if cfg.FactorsFile != "" {
		if tables.Factors, err = LoadFactors(cfg.FactorsFile); err != nil {
			return nil, err
		}
	}

	logger.Info("decoder tables loaded",
		"cause_mode", cfg.CauseDecoderMode,
		"street_types", len(streets),
		"holidays", len(tables.Holidays),
		"time_zone", tables.Location.String(),
	)
	return tables, nil
}
