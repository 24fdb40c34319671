// Package geojsonfile collects enriched crash records and writes them as a
// single GeoJSON FeatureCollection.
package geojsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// ContentType is the media type of the rendered collection.
const ContentType = "application/geo+json"

// Writer accumulates located records in arrival order. It implements
// pipeline.BatchLoader; Flush writes the collection to disk.
type Writer struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	features []*geojson.Feature
	skipped  int
}

// NewWriter returns a Writer for path. An empty path keeps the collection in
// memory only.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// LoadBatch appends the located records of a batch. Unlocated records are
// counted and dropped.
func (w *Writer) LoadBatch(_ context.Context, records []domain.CrashRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range records {
		f, ok := domain.BuildFeature(r)
		if !ok {
			w.skipped++
			continue
		}
		w.features = append(w.features, f)
	}
	return nil
}

// Len returns the number of features collected so far.
func (w *Writer) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.features)
}

// Collection returns a snapshot of the collected features.
func (w *Writer) Collection() *geojson.FeatureCollection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	features := make([]*geojson.Feature, len(w.features))
	copy(features, w.features)
	return &geojson.FeatureCollection{Features: features}
}

// WriteTo encodes the current collection to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	data, err := json.Marshal(w.Collection())
	if err != nil {
		return 0, fmt.Errorf("encode feature collection: %w", err)
	}
	n, err := out.Write(data)
	return int64(n), err
}

// Flush writes the collection to the configured path, replacing any previous
// file only once the new one is complete.
func (w *Writer) Flush(_ context.Context) error {
	if w.path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".crashes-*.geojson")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := w.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}

	w.mu.RLock()
	features, skipped := len(w.features), w.skipped
	w.mu.RUnlock()
	w.logger.Info("geojson written", "path", w.path, "features", features, "unlocated", skipped)
	return nil
}

// Handler serves the current collection.
func (w *Writer) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", ContentType)
		if _, err := w.WriteTo(rw); err != nil {
			w.logger.Error("serve geojson failed", "error", err)
		}
	})
}
