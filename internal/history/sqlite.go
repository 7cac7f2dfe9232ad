package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps history in a local SQLite database
type SQLiteStore struct {
	db         *sql.DB
	dbPath     string
	maxEntries int
	mu         sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// maxEntries <= 0 keeps everything.
func NewSQLiteStore(dbPath string, maxEntries int) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		maxEntries: maxEntries,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON history(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Append inserts entry and trims the table to maxEntries
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO history (command, created_at) VALUES (?, ?)`,
		entry.Command, entry.Timestamp.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if s.maxEntries > 0 {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
			s.maxEntries,
		); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

// Recent returns the last n entries, oldest first
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT command, created_at FROM (
			SELECT id, command, created_at FROM history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var command string
		var createdAt int64
		if err := rows.Scan(&command, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, Entry{
			Timestamp: time.Unix(0, createdAt),
			Command:   command,
		})
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.dbPath
}
