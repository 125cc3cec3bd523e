// Package sqlite keeps answer records in a local database file so single-user
// terminal runs can be reported on later.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cdr-tool/internal/app"
	"cdr-tool/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS answer_records (
	session_id TEXT PRIMARY KEY,
	edition    TEXT NOT NULL,
	record     TEXT NOT NULL,
	saved_at   TEXT NOT NULL
);`

// ResultStore is an app.ResultStore backed by a SQLite file.
type ResultStore struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path.
func Open(ctx context.Context, path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &ResultStore{db: db}, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) SaveRecord(ctx context.Context, rec app.StoredRecord) error {
	data, err := json.Marshal(rec.Record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO answer_records (session_id, edition, record, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET edition = excluded.edition, record = excluded.record, saved_at = excluded.saved_at`,
		rec.SessionID, rec.Edition, string(data), rec.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.SessionID, err)
	}
	return nil
}

func (s *ResultStore) LoadRecord(ctx context.Context, sessionID string) (app.StoredRecord, error) {
	var (
		rec     = app.StoredRecord{SessionID: sessionID}
		raw     string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT edition, record, saved_at FROM answer_records WHERE session_id = ?`, sessionID,
	).Scan(&rec.Edition, &raw, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return app.StoredRecord{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, sessionID)
	}
	if err != nil {
		return app.StoredRecord{}, fmt.Errorf("load record %s: %w", sessionID, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Record); err != nil {
		return app.StoredRecord{}, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	if rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return app.StoredRecord{}, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	return rec, nil
}

// SessionIDs lists stored sessions, most recent first.
func (s *ResultStore) SessionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM answer_records ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
