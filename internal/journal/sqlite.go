package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/retry"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	retry retry.Policy
}

// NewSQLiteStore opens (or creates) a journal database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.JournalError("could not open journal database").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, retry: retry.DefaultPolicy()}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.JournalError("failed to initialize journal schema").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SetRetryPolicy replaces the policy used when another process holds the database lock.
func (s *SQLiteStore) SetRetryPolicy(p retry.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retry = p
}

// isBusy reports lock contention from another connection to the same file.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !stderrors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// Append adds a new event to the store. Writes blocked by another process are retried.
func (s *SQLiteStore) Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return errors.JournalError("failed to marshal event metadata").WithCause(err).Build()
		}
	}
	if payload == nil {
		payload = []byte("{}")
	}

	ts := time.Now().UnixMilli()
	err := s.retry.Do(ctx, isBusy, func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO events (run_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
			runID, eventType, ts, payload, metadataJSON,
		)
		return err
	})
	if err != nil {
		return errors.JournalError("failed to append event to journal").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return nil
}

// ByRun retrieves all events of one run in append order.
func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, event_type, timestamp, payload, metadata FROM events WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, errors.JournalError("failed to query journal").WithCause(err).WithContext("run_id", runID).Build()
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// Runs summarizes every recorded run, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]RunSummary, error) {
	events, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(events), nil
}

func (s *SQLiteStore) all(ctx context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, event_type, timestamp, payload, metadata FROM events ORDER BY id",
	)
	if err != nil {
		return nil, errors.JournalError("failed to query journal").WithCause(err).Build()
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *SQLiteStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var timestampMillis int64
		var metadataJSON []byte

		if err := rows.Scan(&e.EventID, &e.EventRunID, &e.EventType, &timestampMillis, &e.EventPayload, &metadataJSON); err != nil {
			return nil, errors.JournalError("failed to scan journal rows").WithCause(err).Build()
		}
		e.EventTimestamp = time.UnixMilli(timestampMillis)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, errors.JournalError("failed to unmarshal event metadata").WithCause(err).Build()
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.JournalError("failed to iterate journal rows").WithCause(err).Build()
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
