package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crash-data-etl/internal/config"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes each located crash as one GeoJSON Feature message.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes a batch in a single WriteMessages call.
// Records without a location have no Feature form and are not published.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.CrashRecord) error {
	msgs := make([]kafkago.Message, 0, len(records))
	for i := range records {
		msg, ok, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		if ok {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d crashes: %w", len(msgs), err)
	}
	w.logger.Debug("crashes published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record's Feature into a message keyed by
// crash ID, so every version of a crash lands on the same partition.
func serializeToMessage(rec domain.CrashRecord) (kafkago.Message, bool, error) {
	f, ok := domain.BuildFeature(rec)
	if !ok {
		return kafkago.Message{}, false, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, false, fmt.Errorf("serialize crash %s: %w", rec.ID, err)
	}
	headers := []kafkago.Header{
		{Key: "worst_injury", Value: []byte(rec.Worst)},
		{Key: "schema", Value: []byte(domain.SchemaVersion)},
	}
	if !rec.ProcessedAt.IsZero() {
		headers = append(headers, kafkago.Header{Key: "processed_at", Value: []byte(rec.ProcessedAt.UTC().Format(time.RFC3339))})
	}
	if rec.RunID != "" {
		headers = append(headers, kafkago.Header{Key: "run_id", Value: []byte(rec.RunID)})
	}
	return kafkago.Message{
		Key:     []byte(rec.ID),
		Value:   data,
		Headers: headers,
	}, true, nil
}
