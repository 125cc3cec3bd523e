package memory

import (
	"context"
	"fmt"
	"sync"

	"cdr-tool/internal/app"
	"cdr-tool/internal/domain"
)

// ResultStore keeps finished answer records for the lifetime of the process.
type ResultStore struct {
	mu      sync.RWMutex
	records map[string]app.StoredRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{records: make(map[string]app.StoredRecord)}
}

func (s *ResultStore) SaveRecord(_ context.Context, rec app.StoredRecord) error {
	rec.Record = rec.Record.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = rec
	return nil
}

func (s *ResultStore) LoadRecord(_ context.Context, sessionID string) (app.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return app.StoredRecord{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, sessionID)
	}
	rec.Record = rec.Record.Clone()
	return rec, nil
}
