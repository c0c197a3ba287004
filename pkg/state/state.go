// Package state persists notification bookkeeping between service restarts
// so alerts stay at-most-once per billing period.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is the single persisted state row.
type Record struct {
	Month          string // billing period key, 2006-01
	LastInterval   int    // last notified interval index
	CriticalFired  bool
	LastReportDate string // 2006-01-02, empty when no report sent yet
}

// Store keeps the tracker state in an SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS guardian_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	month TEXT NOT NULL,
	last_interval INTEGER NOT NULL DEFAULT 0,
	critical_fired INTEGER NOT NULL DEFAULT 0,
	last_report_date TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
`

// Open creates or opens the state database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	// Enable WAL mode for concurrent reads. The CLI state commands open the
	// same file while the service is running, so waiting on a busy database
	// beats failing with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the persisted state for the given billing period. Stored
// state from a previous period is discarded, which is what resets interval
// and critical bookkeeping at a calendar-month rollover.
func (s *Store) Load(ctx context.Context, month string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT month, last_interval, critical_fired, last_report_date FROM guardian_state WHERE id = 1`)

	var rec Record
	var fired int
	err := row.Scan(&rec.Month, &rec.LastInterval, &fired, &rec.LastReportDate)
	if errors.Is(err, sql.ErrNoRows) {
		return &Record{Month: month}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	rec.CriticalFired = fired != 0

	if rec.Month != month {
		return &Record{Month: month}, nil
	}
	return &rec, nil
}

// Save upserts the state row.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	fired := 0
	if rec.CriticalFired {
		fired = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guardian_state (id, month, last_interval, critical_fired, last_report_date, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   month = excluded.month,
		   last_interval = excluded.last_interval,
		   critical_fired = excluded.critical_fired,
		   last_report_date = excluded.last_report_date,
		   updated_at = excluded.updated_at`,
		rec.Month, rec.LastInterval, fired, rec.LastReportDate, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Reset clears all bookkeeping for the given period.
func (s *Store) Reset(ctx context.Context, month string) error {
	return s.Save(ctx, &Record{Month: month})
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
