package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// CrashTransformer implements Transformer using the domain decoders with
// optional region and place enrichment.
type CrashTransformer struct {
	tables   *domain.DecoderTables
	regions  domain.RegionLocator
	geocoder domain.Geocoder
	runID    string
	logger   *slog.Logger
}

// NewTransformer creates a CrashTransformer. Pass nil regions or geocoder to
// skip that enrichment.
func NewTransformer(tables *domain.DecoderTables, regions domain.RegionLocator, geocoder domain.Geocoder, runID string, logger *slog.Logger) *CrashTransformer {
	return &CrashTransformer{
		tables:   tables,
		regions:  regions,
		geocoder: geocoder,
		runID:    runID,
		logger:   logger,
	}
}

func (t *CrashTransformer) Transform(ctx context.Context, raw domain.RawRow) (domain.CrashRecord, error) {
	row, err := domain.NormalizeRow(raw)
	if err != nil {
		return domain.CrashRecord{}, err
	}

	rec, err := domain.BuildCrashRecord(row, t.tables, t.logger)
	if err != nil {
		return domain.CrashRecord{}, err
	}

	rec = domain.EnrichWithRegion(rec, t.regions)
	rec = domain.EnrichWithPlace(ctx, rec, t.geocoder, t.logger)
	return domain.Stamp(rec, t.runID), nil
}
