// Package store keeps a queryable journal of every interaction in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voxdesk/internal/command"
	"voxdesk/internal/session"
)

// History implements session.Sink on top of SQLite.
type History struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*History, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one writer is all the loop ever needs
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	h := &History{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return h, nil
}

func (h *History) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);
	CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id);
	`
	if _, err := h.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (h *History) Record(ctx context.Context, e session.Entry) error {
	query := `
	INSERT INTO interactions (session_id, created_at, query, response, status)
	VALUES (?, ?, ?, ?, ?)`

	_, err := h.db.ExecContext(ctx, query,
		e.Session, e.Time.UnixMilli(), e.Query, e.Response, string(e.Status))
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]session.Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT session_id, created_at, query, response, status
	FROM interactions ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []session.Entry
	for rows.Next() {
		var (
			e       session.Entry
			created int64
			status  string
		)
		if err := rows.Scan(&e.Session, &created, &e.Query, &e.Response, &status); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		e.Time = time.UnixMilli(created)
		e.Status = command.Status(status)
		out = append(out, e)
	}

	return out, rows.Err()
}

// CountByStatus summarises one session.
func (h *History) CountByStatus(ctx context.Context, sessionID string) (map[command.Status]int, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM interactions WHERE session_id = ? GROUP BY status`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	defer rows.Close()

	out := make(map[command.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		out[command.Status(status)] = n
	}
	return out, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
