// Package journal keeps an append-only SQLite log of every command and
// passphrase transition the dispatcher handles, so operators can see who ran
// what and how it ended.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is replaced in tests to freeze timestamps.
var timeNow = time.Now

// maxDetail caps the stored detail text.
const maxDetail = 500

// ─── Types ───────────────────────────────────────────────────────────────────

// Outcome classifies how a message was handled.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeInvalid Outcome = "invalid"
	OutcomeUnknown Outcome = "unknown"
	OutcomeDenied  Outcome = "denied"
	OutcomePanic   Outcome = "panic"
)

// Entry is one journal row.
type Entry struct {
	ID         int64   `json:"id"`
	At         string  `json:"at"`
	TraceID    string  `json:"trace_id"`
	ServerID   string  `json:"server_id"`
	ChannelID  string  `json:"channel_id"`
	AuthorID   string  `json:"author_id"`
	AuthorName string  `json:"author_name"`
	Command    string  `json:"command"`
	Outcome    Outcome `json:"outcome"`
	Detail     string  `json:"detail,omitempty"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the journal database.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database in WAL mode
// and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			at          TEXT NOT NULL,
			trace_id    TEXT NOT NULL,
			server_id   TEXT NOT NULL,
			channel_id  TEXT NOT NULL,
			author_id   TEXT NOT NULL,
			author_name TEXT NOT NULL,
			command     TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_entries_server ON entries(server_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record appends an entry. ID and At are assigned here.
func (s *Store) Record(ctx context.Context, e Entry) error {
	at := timeNow().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (at, trace_id, server_id, channel_id, author_id, author_name, command, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at, e.TraceID, e.ServerID, e.ChannelID, e.AuthorID, e.AuthorName, e.Command, string(e.Outcome), truncate(e.Detail, maxDetail),
	)
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Recent returns up to limit entries, newest first. An empty serverID means
// every server.
func (s *Store) Recent(ctx context.Context, serverID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, at, trace_id, server_id, channel_id, author_id, author_name, command, outcome, detail
		FROM entries
	`
	args := []any{}
	if serverID != "" {
		query += " WHERE server_id = ?"
		args = append(args, serverID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		if err := rows.Scan(&e.ID, &e.At, &e.TraceID, &e.ServerID, &e.ChannelID, &e.AuthorID, &e.AuthorName, &e.Command, &outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}
