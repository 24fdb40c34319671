// Package postgis stores enriched crash records in a PostGIS table.
package postgis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// Store upserts crash records keyed by crash ID. It implements
// pipeline.BatchLoader. Unlocated records are stored with a NULL geometry.
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// Open connects using a lib/pq DSN and verifies the connection.
func Open(ctx context.Context, dsn, table string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, table, logger), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, table string, logger *slog.Logger) *Store {
	return &Store{db: db, table: table, logger: logger}
}

// EnsureSchema creates the PostGIS extension, the table and its spatial index
// if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// LoadBatch upserts a batch in one transaction.
func (s *Store) LoadBatch(ctx context.Context, records []domain.CrashRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertQuery(s.table))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		args, err := crashArgs(records[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert crash %s: %w", records[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit crashes: %w", err)
	}
	s.logger.Debug("crashes stored", "count", len(records), "table", s.table)
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func schemaStatements(table string) []string {
	t := pq.QuoteIdentifier(table)
	idx := pq.QuoteIdentifier(table + "_geom_idx")
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			crash_id      text PRIMARY KEY,
			worst_injury  text NOT NULL,
			crash_date    date,
			instant       timestamptz,
			road          text,
			region        text,
			holiday       text,
			cause_text    text[],
			properties    jsonb NOT NULL,
			geom          geometry(Point, 4326),
			run_id        text,
			processed_at  timestamptz
		)`,
		`CREATE INDEX IF NOT EXISTS ` + idx + ` ON ` + t + ` USING GIST (geom)`,
	}
}

func upsertQuery(table string) string {
	cols := []string{
		"crash_id", "worst_injury", "crash_date", "instant", "road", "region",
		"holiday", "cause_text", "properties", "geom", "run_id", "processed_at",
	}
	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, c+" = EXCLUDED."+c)
	}
	return `INSERT INTO ` + pq.QuoteIdentifier(table) + ` (` + strings.Join(cols, ", ") + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			CASE WHEN $10::float8 IS NULL THEN NULL
				ELSE ST_SetSRID(ST_MakePoint($10::float8, $11::float8), 4326) END,
			$12, $13)
		ON CONFLICT (crash_id) DO UPDATE SET ` + strings.Join(updates, ", ")
}

// crashArgs maps a record to the upsert's positional arguments.
func crashArgs(r domain.CrashRecord) ([]any, error) {
	props, err := json.Marshal(domain.FeatureProperties(r))
	if err != nil {
		return nil, fmt.Errorf("encode crash %s properties: %w", r.ID, err)
	}

	var lon, lat sql.NullFloat64
	if r.Location != nil {
		lon = sql.NullFloat64{Float64: r.Location.Lon, Valid: true}
		lat = sql.NullFloat64{Float64: r.Location.Lat, Valid: true}
	}

	return []any{
		r.ID,
		string(r.Worst),
		nullTime(r.Date),
		nullTime(r.Instant),
		nullString(r.Road),
		nullString(r.Region),
		nullString(r.Holiday),
		pq.Array(r.CauseSentences()),
		props,
		lon,
		lat,
		nullString(r.RunID),
		nullTime(r.ProcessedAt),
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
