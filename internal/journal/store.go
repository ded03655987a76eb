// Package journal persists command outcomes to a local sqlite database so
// they can be inspected after the fact with `relayctl history`.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mfulz/scenerelay/interfaces"
	"github.com/mfulz/scenerelay/internal/logging"
)

const writeTimeout = 2 * time.Second

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = db.Close()
		return nil, fmt.Errorf("chmod journal: %w", err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, o interfaces.Outcome) error {
	if o.At.IsZero() {
		o.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO outcomes(action_id, label, success, message, executed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(action_id) DO UPDATE SET
	label=excluded.label,
	success=excluded.success,
	message=excluded.message,
	executed_at=excluded.executed_at
`, o.ID, o.Label, boolToInt(o.Success), o.Message, ts(o.At))
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Report implements interfaces.Reporter. Write failures are logged only.
func (s *Store) Report(o interfaces.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.Insert(ctx, o); err != nil {
		logging.Log.Warnf("[journal] Failed to record %s (%s): %v", o.Label, o.ID, err)
	}
}

// Recent returns up to n outcomes, newest first. n <= 0 returns all.
func (s *Store) Recent(ctx context.Context, n int) ([]interfaces.Outcome, error) {
	query := `
SELECT action_id, label, success, message, executed_at
FROM outcomes
ORDER BY executed_at DESC, seq DESC`
	args := make([]any, 0, 1)
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]interfaces.Outcome, 0)
	for rows.Next() {
		var (
			o       interfaces.Outcome
			success int
			at      string
		)
		if err := rows.Scan(&o.ID, &o.Label, &success, &o.Message, &at); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Success = success != 0
		if o.At, err = parseTS(at); err != nil {
			return nil, fmt.Errorf("parse executed_at: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter outcomes: %w", err)
	}
	return out, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
