// internal/db/store.go
// Package db is a local SQLite cache of conversations fetched from the backend.
// Only authoritative (server-confirmed) conversations are written here.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"synapse/internal/council"
)

// ErrNotFound is returned for conversations that are not cached
var ErrNotFound = errors.New("conversation not cached")

type Store struct {
	db *sql.DB
}

// Open opens the cache at the default location
func Open() (*Store, error) {
	dataDir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dataDir, "cache.db"))
}

// OpenPath opens or creates the cache at path
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return store, nil
}

func dataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "synapse"), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (conversation_id, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveConversation replaces the cached copy of conv
func (s *Store) SaveConversation(conv *council.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO conversations (id, title, created_at, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, created_at = excluded.created_at, fetched_at = excluded.fetched_at`,
		conv.ID, conv.Title, formatTime(conv.CreatedAt.Time), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO messages (conversation_id, seq, role, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}
		if _, err := stmt.Exec(conv.ID, i, string(msg.Role), string(payload)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetConversation returns the cached conversation with its messages
func (s *Store) GetConversation(id string) (*council.Conversation, error) {
	row := s.db.QueryRow(`SELECT id, title, created_at FROM conversations WHERE id = ?`, id)

	var conv council.Conversation
	var createdAt string
	if err := row.Scan(&conv.ID, &conv.Title, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	conv.CreatedAt = council.NewTimestamp(parseTime(createdAt))

	rows, err := s.db.Query(`SELECT payload FROM messages WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conv.Messages = []council.Message{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var msg council.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("decode cached message: %w", err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return &conv, rows.Err()
}

// ListConversations returns cached summaries, newest first
func (s *Store) ListConversations() ([]council.ConversationSummary, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.title, c.created_at, COUNT(m.seq)
		FROM conversations c LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []council.ConversationSummary
	for rows.Next() {
		var sum council.ConversationSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.Title, &createdAt, &sum.MessageCount); err != nil {
			return nil, err
		}
		sum.CreatedAt = council.NewTimestamp(parseTime(createdAt))
		out = append(out, sum)
	}
	return out, rows.Err()
}

// RenameConversation updates a cached title
func (s *Store) RenameConversation(id, title string) error {
	res, err := s.db.Exec(`UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// DeleteConversation drops a conversation and its messages
func (s *Store) DeleteConversation(id string) error {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
