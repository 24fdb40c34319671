package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
	"github.com/couchcryptid/crash-data-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw rows from the source. It returns
// io.EOF once the source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRow, error)
}

// Transformer converts a raw row into an enriched crash record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRow) (domain.CrashRecord, error)
}

// BatchLoader writes multiple crash records to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.CrashRecord) error
}

// Flusher is implemented by loaders that buffer until the run ends.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Sink is a named loader. The name labels metrics and logs.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// Summary reports the outcome of one run.
type Summary struct {
	RowsRead        int
	RowsSkipped     int
	Records         int
	Located         int
	Unlocated       int
	MalformedCauses int
	Duration        time.Duration
}

// Option adjusts a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds concurrent transforms within a batch.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLoadRetries sets how many times a failing sink write is attempted.
func WithLoadRetries(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.loadRetries = n
		}
	}
}

// WithBackoff sets the first and the largest wait between sink retries.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(p *Pipeline) {
		p.initialBackoff = initial
		p.maxBackoff = maxBackoff
	}
}

// Pipeline orchestrates one extract-transform-load pass over a crash file.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[Summary]
	batchSize   int

	workers        int
	loadRetries    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,

		workers:        1,
		loadRetries:    1,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastSummary returns the summary of the most recent completed run.
func (p *Pipeline) LastSummary() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// Run processes the source to exhaustion. Rows with malformed fields are
// skipped; any other transform error, or a sink that keeps failing after
// its retries, aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "workers", p.workers, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		done, err := p.processBatch(ctx, &sum)
		if err != nil {
			return sum, err
		}
		if done {
			break
		}
	}

	if err := p.flush(ctx); err != nil {
		return sum, err
	}

	sum.Duration = time.Since(start)
	p.last.Store(&sum)
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"rows_read", sum.RowsRead,
		"rows_skipped", sum.RowsSkipped,
		"records", sum.Records,
		"unlocated", sum.Unlocated,
		"malformed_causes", sum.MalformedCauses,
		"duration", sum.Duration,
	)
	return sum, nil
}

// processBatch runs one extract-transform-load cycle. done is true once the
// source is exhausted.
func (p *Pipeline) processBatch(ctx context.Context, sum *Summary) (done bool, err error) {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("extract batch: %w", err)
	}
	if len(rawBatch) == 0 {
		return false, nil
	}

	sum.RowsRead += len(rawBatch)
	p.metrics.RowsRead.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	records, err := p.transformBatch(ctx, rawBatch, sum)
	if err != nil {
		return false, err
	}

	if len(records) > 0 {
		for _, s := range p.sinks {
			if err := p.loadWithRetry(ctx, s, records); err != nil {
				return false, err
			}
		}
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return false, nil
}

// transformBatch transforms rows concurrently and returns the records in
// input order, minus skipped rows.
func (p *Pipeline) transformBatch(ctx context.Context, rawBatch []domain.RawRow, sum *Summary) ([]domain.CrashRecord, error) {
	results := make([]domain.CrashRecord, len(rawBatch))
	skipped := make([]bool, len(rawBatch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range rawBatch {
		g.Go(func() error {
			rec, err := p.transformer.Transform(gctx, rawBatch[i])
			if errors.Is(err, domain.ErrMalformedField) {
				p.logger.Warn("skipping malformed row",
					"crash_id", rawBatch[i].Cell(domain.ColCrashID),
					"error", err,
				)
				skipped[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	records := make([]domain.CrashRecord, 0, len(results))
	for i, rec := range results {
		if skipped[i] {
			sum.RowsSkipped++
			p.metrics.RowsSkipped.WithLabelValues("malformed_field").Inc()
			continue
		}
		sum.Records++
		p.metrics.RecordsBuilt.WithLabelValues(string(rec.Worst)).Inc()
		if rec.HasLocation() {
			sum.Located++
		} else {
			sum.Unlocated++
			p.metrics.Unlocated.Inc()
		}
		if n := len(rec.MalformedCauses); n > 0 {
			sum.MalformedCauses += n
			p.metrics.MalformedCauses.Add(float64(n))
		}
		records = append(records, rec)
	}
	return records, nil
}

// loadWithRetry writes to one sink, backing off between attempts.
func (p *Pipeline) loadWithRetry(ctx context.Context, s Sink, records []domain.CrashRecord) error {
	backoff := p.initialBackoff
	var err error
	for attempt := 1; attempt <= p.loadRetries; attempt++ {
		if err = s.Loader.LoadBatch(ctx, records); err == nil {
			p.metrics.RecordsWritten.WithLabelValues(s.Name).Add(float64(len(records)))
			return nil
		}
		p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
		p.logger.Error("load batch failed",
			"sink", s.Name,
			"attempt", attempt,
			"batch_size", len(records),
			"error", err,
		)
		if attempt == p.loadRetries {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, p.maxBackoff)
	}
	return fmt.Errorf("sink %s: %w", s.Name, err)
}

func (p *Pipeline) flush(ctx context.Context) error {
	for _, s := range p.sinks {
		f, ok := s.Loader.(Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(ctx); err != nil {
			p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			return fmt.Errorf("flush sink %s: %w", s.Name, err)
		}
	}
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
