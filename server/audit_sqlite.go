package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS invocations (
	id TEXT PRIMARY KEY,
	operation TEXT NOT NULL,
	tool_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations (created_at DESC);`

// SQLiteAuditStore persists invocation records in SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore opens (or creates) a SQLite-backed audit store.
func NewSQLiteAuditStore(dsn string) (*SQLiteAuditStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("server: sqlite audit dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("server: sqlite audit open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("server: sqlite audit set WAL mode: %w", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("server: sqlite audit create schema: %w", err)
	}

	return &SQLiteAuditStore{db: db}, nil
}

func (s *SQLiteAuditStore) Insert(ctx context.Context, rec InvocationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("server: sqlite audit store is nil")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("server: invocation record id is required")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO invocations (id, operation, tool_id, status, error_kind, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Operation,
		rec.ToolID,
		rec.Status,
		rec.ErrorKind,
		rec.DurationMS,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("server: sqlite insert invocation: %w", err)
	}
	return nil
}

func (s *SQLiteAuditStore) List(ctx context.Context, limit int) ([]InvocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("server: sqlite audit store is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, operation, tool_id, status, error_kind, duration_ms, created_at
FROM invocations
ORDER BY created_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("server: sqlite list invocations: %w", err)
	}
	defer rows.Close()

	var records []InvocationRecord
	for rows.Next() {
		var (
			rec       InvocationRecord
			createdAt string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Operation,
			&rec.ToolID,
			&rec.Status,
			&rec.ErrorKind,
			&rec.DurationMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("server: sqlite scan invocation: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("server: sqlite invocation created_at %q: %w", createdAt, err)
		}
		rec.CreatedAt = parsed.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("server: sqlite invocation rows: %w", err)
	}

	return records, nil
}

// Close closes the underlying database connection.
func (s *SQLiteAuditStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ AuditStore = (*SQLiteAuditStore)(nil)
