// Package feedback stores reviewer feedback on scores for future offline
// retraining. Feedback never affects the live cache or scorer.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Kind labels the kind of feedback a reviewer submitted.
type Kind string

// Feedback kinds.
const (
	FalsePositive  Kind = "false_positive"
	FalseNegative  Kind = "false_negative"
	ConfirmedBot   Kind = "confirmed_bot"
	ConfirmedHuman Kind = "confirmed_human"
)

// ParseKind validates a wire-format feedback kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case FalsePositive, FalseNegative, ConfirmedBot, ConfirmedHuman:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	kind       TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_identifier ON feedback(identifier);
CREATE INDEX IF NOT EXISTS idx_feedback_kind ON feedback(kind);
`

// Store accepts and aggregates feedback records.
type Store interface {
	Record(ctx context.Context, identifier string, kind Kind, note string) error
	Counts(ctx context.Context) (map[string]int64, error)
	Close() error
}

// SQLiteStore implements Store on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the feedback database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create feedback db directory: %w", err)
		}
		path = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open feedback db: %w", err)
	}
	// sqlite does not support concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate feedback db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record stores one feedback entry.
func (s *SQLiteStore) Record(ctx context.Context, identifier string, kind Kind, note string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, identifier, kind, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), identifier, string(kind), note, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Counts returns the number of stored entries per kind.
func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM feedback GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan feedback counts: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback counts: %w", err)
	}
	return counts, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
