// Package storage caches the bike sharing dataset in SQLite so the service can
// start without re-parsing CSV files, and keeps a log of dataset imports.
//
// Records are written once per import inside a single transaction and read
// back in insertion order. Missing measurements are stored as NULL and come
// back as NaN.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/bikeshare/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	granularity TEXT    NOT NULL,
	day         TEXT    NOT NULL,
	hour        INTEGER NOT NULL,
	season      INTEGER NOT NULL,
	weather     INTEGER NOT NULL,
	weekday     INTEGER NOT NULL,
	temp        REAL,
	hum         REAL,
	windspeed   REAL,
	cnt         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_granularity ON records (granularity, id);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT    PRIMARY KEY,
	granularity TEXT    NOT NULL,
	source      TEXT    NOT NULL,
	rows        INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	imported_at TEXT    NOT NULL
);
`

// importTimeLayout is fixed-width so stored timestamps sort lexicographically
const importTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Storage is a SQLite-backed dataset cache
type Storage struct {
	db *sql.DB
}

// ImportRun describes one completed dataset import
type ImportRun struct {
	ID          string    `json:"id"`
	Granularity string    `json:"granularity"`
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Failed      int       `json:"failed"`
	ImportedAt  time.Time `json:"imported_at"`
}

// New opens (or creates) the database at dbPath and applies the schema.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Storage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// ReplaceRecords swaps the stored record set of granularity g for records
func (s *Storage) ReplaceRecords(ctx context.Context, g models.Granularity, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE granularity = ?`, g.String()); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(granularity, day, hour, season, weather, weekday, temp, hum, windspeed, cnt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx,
			g.String(),
			r.Date.Format(time.DateOnly),
			r.Hour,
			int(r.Season),
			int(r.Weather),
			r.Weekday,
			nullFloat(r.Temp),
			nullFloat(r.Humidity),
			nullFloat(r.WindSpeed),
			r.Count,
		); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// LoadRecords returns the stored records of granularity g in insertion order
func (s *Storage) LoadRecords(ctx context.Context, g models.Granularity) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day, hour, season, weather, weekday, temp, hum, windspeed, cnt
		FROM records WHERE granularity = ? ORDER BY id`, g.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var (
			day                  string
			season, weather      int
			temp, hum, windspeed sql.NullFloat64
			r                    models.Record
		)
		if err := rows.Scan(&day, &r.Hour, &season, &weather, &r.Weekday, &temp, &hum, &windspeed, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Date, err = time.Parse(time.DateOnly, day); err != nil {
			return nil, fmt.Errorf("invalid stored day %q: %w", day, err)
		}
		r.Season = models.Season(season)
		r.Weather = models.Weather(weather)
		r.Temp = floatOrNaN(temp)
		r.Humidity = floatOrNaN(hum)
		r.WindSpeed = floatOrNaN(windspeed)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// CountRecords returns how many records of granularity g are stored
func (s *Storage) CountRecords(ctx context.Context, g models.Granularity) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE granularity = ?`, g.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// AddImport logs a completed import and returns it with its generated ID
func (s *Storage) AddImport(ctx context.Context, g models.Granularity, source string, rows, failed int) (*ImportRun, error) {
	run := &ImportRun{
		ID:          uuid.New().String(),
		Granularity: g.String(),
		Source:      source,
		Rows:        rows,
		Failed:      failed,
		ImportedAt:  time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO imports (id, granularity, source, rows, failed, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Granularity, run.Source, run.Rows, run.Failed, run.ImportedAt.Format(importTimeLayout)); err != nil {
		return nil, fmt.Errorf("failed to log import: %w", err)
	}
	return run, nil
}

// ListImports returns the most recent imports, newest first
func (s *Storage) ListImports(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, granularity, source, rows, failed, imported_at
		FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	runs := make([]ImportRun, 0)
	for rows.Next() {
		var run ImportRun
		var at string
		if err := rows.Scan(&run.ID, &run.Granularity, &run.Source, &run.Rows, &run.Failed, &at); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		if run.ImportedAt, err = time.Parse(importTimeLayout, at); err != nil {
			return nil, fmt.Errorf("invalid import time %q: %w", at, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
