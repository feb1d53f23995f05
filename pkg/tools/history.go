package tools

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// HistoryEntry is one recorded send attempt.
type HistoryEntry struct {
	ID        int64
	Recipient string // normalized digits the message went to
	Label     string // the contact argument as the user typed it
	Message   string
	Status    string
	Error     string
	CreatedAt time.Time
}

// HistoryStore keeps a log of send attempts in a small sqlite database next
// to the contact config.
type HistoryStore struct {
	db *sql.DB
}

func OpenHistory(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recipient TEXT NOT NULL,
		label TEXT,
		content TEXT,
		status TEXT NOT NULL,
		error TEXT,
		created_at TIMESTAMP NOT NULL
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table messages: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Record appends one send attempt.
func (hs *HistoryStore) Record(entry HistoryEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := hs.db.Exec(
		`INSERT INTO messages (recipient, label, content, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Recipient, entry.Label, entry.Message, entry.Status, entry.Error, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record send attempt: %w", err)
	}
	return nil
}

// Recent returns the latest send attempts, newest first.
func (hs *HistoryStore) Recent(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := hs.db.Query(
		`SELECT id, recipient, label, content, status, error, created_at FROM messages ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query send history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.Recipient, &entry.Label, &entry.Message, &entry.Status, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read send history: %w", err)
	}

	return entries, nil
}

func (hs *HistoryStore) Close() error {
	return hs.db.Close()
}
