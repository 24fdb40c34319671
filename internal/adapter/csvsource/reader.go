// Package csvsource reads crash rows from the CAS CSV export.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// Reader yields raw crash rows in file order. The header row is skipped.
// It implements pipeline.BatchExtractor.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	logger *slog.Logger
	header bool
	line   int
	done   bool
}

// Open opens a crash export on disk.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open crash data: %w", err)
	}
	r := NewReader(f, logger)
	r.closer = f
	return r, nil
}

// NewReader wraps any CSV stream.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &Reader{csv: cr, logger: logger}
}

// ExtractBatch returns up to batchSize rows. It returns io.EOF once the input
// is exhausted and no rows remain. Lines the CSV parser rejects are logged
// and skipped.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRow, error) {
	if r.done {
		return nil, io.EOF
	}
	if !r.header {
		if _, err := r.csv.Read(); err != nil {
			r.done = true
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read crash header: %w", err)
		}
		r.header = true
		r.line = 1
	}

	batch := make([]domain.RawRow, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		rec, err := r.csv.Read()
		r.line++
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			r.logger.Warn("skipping unparseable crash line", "line", perr.Line, "error", perr.Err)
			continue
		}
		if err != nil {
			return batch, fmt.Errorf("read crash line %d: %w", r.line, err)
		}
		batch = append(batch, domain.RawRow(rec))
	}

	if len(batch) == 0 && r.done {
		return nil, io.EOF
	}
	return batch, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
