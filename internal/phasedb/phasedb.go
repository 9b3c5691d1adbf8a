// Package phasedb persists phase records in SQLite and answers lookups
// with the same selection policy as the in-memory store.
package phasedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/litescript/lunie/internal/phase"
)

const isoDate = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS phase_records (
	date TEXT PRIMARY KEY,
	phase TEXT NOT NULL DEFAULT '',
	illumination_pct REAL,
	moon_age_days REAL,
	moon_angle_deg REAL,
	moon_distance_km REAL,
	sun_angle_deg REAL,
	sun_distance_km REAL,
	source_url TEXT NOT NULL DEFAULT ''
);
`

const columns = `date, phase, illumination_pct, moon_age_days, moon_angle_deg,
	moon_distance_km, sun_angle_deg, sun_distance_km, source_url`

// Store is a SQLite-backed phase.Source.
type Store struct {
	db   *sql.DB
	path string
}

var _ phase.Source = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Import inserts records in one transaction. A date that already exists,
// in the database or earlier in records, is kept and the new row is
// ignored. It returns the number of rows inserted.
func (s *Store) Import(ctx context.Context, records []phase.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO phase_records (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			phase.Day(r.Date).Format(isoDate),
			r.Phase,
			nullable(r.Illumination),
			nullable(r.AgeDays),
			nullable(r.MoonAngleDeg),
			nullable(r.MoonDistanceKm),
			nullable(r.SunAngleDeg),
			nullable(r.SunDistanceKm),
			r.SourceURL,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert %s: %w", r.Date.Format(isoDate), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM phase_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Lookup returns the record for target: an exact date match, else the
// closest earlier date, else the earliest stored date. An empty table
// yields phase.ErrNoData.
func (s *Store) Lookup(ctx context.Context, target time.Time) (phase.Record, error) {
	day := phase.Day(target).Format(isoDate)

	r, err := s.queryOne(ctx, `SELECT `+columns+` FROM phase_records
		WHERE date <= ? ORDER BY date DESC LIMIT 1`, day)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return phase.Record{}, err
	}

	r, err = s.queryOne(ctx, `SELECT `+columns+` FROM phase_records
		ORDER BY date ASC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return phase.Record{}, phase.ErrNoData
	}
	return r, err
}

// All returns every record in date order.
func (s *Store) All(ctx context.Context) ([]phase.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM phase_records ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []phase.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (phase.Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx, query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (phase.Record, error) {
	var (
		date, name, url               string
		illum, age, moonAng, moonDist sql.NullFloat64
		sunAng, sunDist               sql.NullFloat64
	)
	if err := sc.Scan(&date, &name, &illum, &age, &moonAng, &moonDist, &sunAng, &sunDist, &url); err != nil {
		return phase.Record{}, fmt.Errorf("scan record: %w", err)
	}

	d, err := time.Parse(isoDate, date)
	if err != nil {
		return phase.Record{}, fmt.Errorf("bad stored date %q: %w", date, err)
	}
	return phase.Record{
		Date:           d,
		Phase:          name,
		Illumination:   ptr(illum),
		AgeDays:        ptr(age),
		MoonAngleDeg:   ptr(moonAng),
		MoonDistanceKm: ptr(moonDist),
		SunAngleDeg:    ptr(sunAng),
		SunDistanceKm:  ptr(sunDist),
		SourceURL:      url,
	}, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
