package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the journal to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal store.
// The path should be a file path (e.g., "./journal.db") or ":memory:"
// for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			kind TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			element_type TEXT NOT NULL,
			elements INTEGER NOT NULL,
			at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_node_id
		ON journal(node_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO journal (node_id, direction, kind, channel_id, element_type, elements, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.NodeID, string(rec.Direction), rec.Kind, rec.ChannelID, rec.ElementType, rec.Elements,
		rec.At.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(nodeID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT seq, node_id, direction, kind, channel_id, element_type, elements, at
		FROM journal WHERE node_id = ? ORDER BY seq
	`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Tail implements Store.
func (s *SQLiteStore) Tail(nodeID string, n int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if n <= 0 {
		return []Record{}, nil
	}

	rows, err := s.db.Query(`
		SELECT seq, node_id, direction, kind, channel_id, element_type, elements, at
		FROM (
			SELECT * FROM journal WHERE node_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`, nodeID, n)
	if err != nil {
		return nil, fmt.Errorf("tail records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// DeleteNode implements Store.
func (s *SQLiteStore) DeleteNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM journal WHERE node_id = ?`, nodeID); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var direction, at string
		if err := rows.Scan(&rec.Seq, &rec.NodeID, &direction, &rec.Kind,
			&rec.ChannelID, &rec.ElementType, &rec.Elements, &at); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Direction = Direction(direction)
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		rec.At = ts
		records = append(records, rec)
	}
	return records, rows.Err()
}
