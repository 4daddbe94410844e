package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
)

// historyKey namespaces the conversation snapshot inside the kv table,
// matching the key the web client used for its local storage.
const historyKey = "kisan_sahay_chat"

// Store persists the conversation as a single namespaced snapshot row in a
// local SQLite database. The whole history is overwritten on every save,
// last-writer-wins.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and ensures the kv table
// exists. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The driver treats every pooled connection as a separate database for
	// ":memory:", and concurrent writers to a file db just contend on locks.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS chat_store (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chat_store table: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the persisted message history. It fails soft: a missing
// snapshot, an unreadable database or a malformed payload all yield an empty
// history, logged but never surfaced to the caller.
func (s *Store) Load(ctx context.Context) []chat.Message {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM chat_store WHERE key = ?", historyKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Printf("[store] failed to load chat history: %v", err)
		return nil
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		log.Printf("[store] discarding malformed chat history: %v", err)
		return nil
	}
	return messages
}

// Save overwrites the stored snapshot with the given message sequence.
func (s *Store) Save(ctx context.Context, messages []chat.Message) error {
	if messages == nil {
		messages = []chat.Message{}
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to serialize chat history: %w", err)
	}

	const upsert = `INSERT INTO chat_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, upsert, historyKey, string(payload)); err != nil {
		return fmt.Errorf("failed to persist chat history: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
