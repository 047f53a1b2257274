package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daydemir/ci-recovery/internal/types"
)

// SQLiteStore persists attempts so separate CI steps can share history
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the store at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		errors TEXT NOT NULL,
		actions TEXT NOT NULL,
		success INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		revision TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_timestamp ON attempts(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts an attempt; rows are never updated afterwards
func (s *SQLiteStore) Append(ctx context.Context, attempt types.RecoveryAttempt) error {
	if err := attempt.Validate(); err != nil {
		return err
	}

	errorsJSON, err := json.Marshal(nonNilErrors(attempt.Errors))
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	actionsJSON, err := json.Marshal(nonNilActions(attempt.Actions))
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO attempts (id, timestamp, errors, actions, success, duration_ms, revision) VALUES (?, ?, ?, ?, ?, ?, ?)",
		attempt.ID, attempt.Timestamp.UnixMilli(), string(errorsJSON), string(actionsJSON),
		boolToInt(attempt.Success), attempt.Duration, attempt.Revision,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// List returns every attempt in append order
func (s *SQLiteStore) List(ctx context.Context) ([]types.RecoveryAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, errors, actions, success, duration_ms, revision FROM attempts ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []types.RecoveryAttempt
	for rows.Next() {
		var (
			a           types.RecoveryAttempt
			timestampMs int64
			errorsJSON  string
			actionsJSON string
			success     int
		)
		if err := rows.Scan(&a.ID, &timestampMs, &errorsJSON, &actionsJSON, &success, &a.Duration, &a.Revision); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Timestamp = time.UnixMilli(timestampMs)
		a.Success = success != 0
		if err := json.Unmarshal([]byte(errorsJSON), &a.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal errors of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &a.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions of %s: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return attempts, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNilErrors(errs []types.BuildError) []types.BuildError {
	if errs == nil {
		return []types.BuildError{}
	}
	return errs
}

func nonNilActions(actions []string) []string {
	if actions == nil {
		return []string{}
	}
	return actions
}
