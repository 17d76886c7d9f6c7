package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JakeFAU/sha256-digest/internal/digest"
)

// RecordStore provides an in-memory digest.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]digest.Record
}

// NewRecordStore constructs a RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]digest.Record),
	}
}

// SaveRecord stores a new record. IDs must be unique.
func (s *RecordStore) SaveRecord(_ context.Context, record digest.Record) error {
	if record.ID == "" {
		return errors.New("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return errors.New("record already exists")
	}
	s.records[record.ID] = record
	return nil
}

// GetRecord returns the record with the given ID.
func (s *RecordStore) GetRecord(_ context.Context, id string) (digest.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return digest.Record{}, digest.ErrNotFound
	}
	return record, nil
}

// Len reports how many records are stored.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *RecordStore) Close() {}
