package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/crash-data-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/geojsonfile"
	kafkaadapter "github.com/couchcryptid/crash-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/postgis"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/region"
	"github.com/couchcryptid/crash-data-etl/internal/adapter/tables"
	"github.com/couchcryptid/crash-data-etl/internal/config"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
	"github.com/couchcryptid/crash-data-etl/internal/observability"
	"github.com/couchcryptid/crash-data-etl/internal/pipeline"
)

// app holds everything one conversion run needs. Close releases the source
// and every sink that holds a connection.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	runID    string
	pipeline *pipeline.Pipeline
	geojson  *geojsonfile.Writer
	closers  []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// newApp loads the decoder tables and region boundaries, then wires the CSV
// source, the transformer and the configured sinks into a pipeline.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, runID: uuid.NewString()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	tbl, err := tables.Load(cfg, logger)
	if err != nil {
		return nil, err
	}

	var regions domain.RegionLocator
	if cfg.RegionsFile != "" {
		loc, err := region.Load(cfg.RegionsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("region boundaries loaded", "regions", loc.Len())
		regions = loc
	}

	geocoder, err := newGeocoder(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	src, err := csvsource.Open(cfg.CrashDataFile, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"source", src})

	sinks, err := a.openSinks(ctx)
	if err != nil {
		return nil, err
	}

	transformer := pipeline.NewTransformer(tbl, regions, geocoder, a.runID, logger)
	a.pipeline = pipeline.New(src, transformer, sinks, logger, metrics, cfg.BatchSize,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLoadRetries(cfg.LoadRetries),
	)
	logger.Info("run configured", "run_id", a.runID, "crash_file", cfg.CrashDataFile, "sinks", len(sinks))
	return a, nil
}

// newGeocoder returns nil when Mapbox enrichment is disabled. The nil is an
// untyped interface so the transformer skips place lookups.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, error) {
	if !cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
		return nil, nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
	cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	metrics.GeocodeEnabled.Set(1)
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return cached, nil
}

// openSinks always writes the GeoJSON collection, and adds Kafka and PostGIS
// when configured.
func (a *app) openSinks(ctx context.Context) ([]pipeline.Sink, error) {
	a.geojson = geojsonfile.NewWriter(a.cfg.OutputFile, a.logger)
	sinks := []pipeline.Sink{{Name: "geojson", Loader: a.geojson}}

	if a.cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(a.cfg, a.logger)
		a.closers = append(a.closers, namedCloser{"kafka", w})
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: w})
	}

	if a.cfg.PostgresDSN != "" {
		store, err := postgis.Open(ctx, a.cfg.PostgresDSN, a.cfg.PostgresTable, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, namedCloser{"postgis", store})
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgis schema: %w", err)
		}
		sinks = append(sinks, pipeline.Sink{Name: "postgis", Loader: store})
	}
	return sinks, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.logger.Error("close error", "component", nc.name, "error", err)
		}
	}
	a.closers = nil
}
