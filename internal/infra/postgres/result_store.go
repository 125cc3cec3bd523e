package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cdr-tool/internal/app"
	"cdr-tool/internal/domain"
	"github.com/uptrace/bun"
)

// ResultStore keeps finished answer records in the answer_records table.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

type answerRecordRow struct {
	bun.BaseModel `bun:"table:answer_records"`

	SessionID string    `bun:"session_id,pk"`
	Edition   string    `bun:"edition,notnull"`
	Record    string    `bun:"record,type:jsonb,notnull"`
	SavedAt   time.Time `bun:"saved_at,notnull"`
}

func (s *ResultStore) SaveRecord(ctx context.Context, rec app.StoredRecord) error {
	data, err := json.Marshal(rec.Record)
	if err != nil {
		return err
	}
	row := &answerRecordRow{
		SessionID: rec.SessionID,
		Edition:   rec.Edition,
		Record:    string(data),
		SavedAt:   rec.SavedAt,
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("edition = EXCLUDED.edition").
		Set("record = EXCLUDED.record").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.SessionID, err)
	}
	return nil
}

func (s *ResultStore) LoadRecord(ctx context.Context, sessionID string) (app.StoredRecord, error) {
	row := new(answerRecordRow)
	err := s.db.NewSelect().Model(row).Where("session_id = ?", sessionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return app.StoredRecord{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, sessionID)
	}
	if err != nil {
		return app.StoredRecord{}, fmt.Errorf("load record %s: %w", sessionID, err)
	}

	var record domain.AnswerRecord
	if err := json.Unmarshal([]byte(row.Record), &record); err != nil {
		return app.StoredRecord{}, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	return app.StoredRecord{
		SessionID: row.SessionID,
		Edition:   row.Edition,
		Record:    record,
		SavedAt:   row.SavedAt,
	}, nil
}
