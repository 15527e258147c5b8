package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interviewlab/interview-api/internal/domain"
)

// RecordStore is an in-memory implementation of domain.RecordStore. It is
// NOT persistent and is only suitable for development and tests.
type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.RecordID]domain.RecordSnapshot
	order   []domain.RecordID
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[domain.RecordID]domain.RecordSnapshot),
	}
}

func (s *RecordStore) ListAll(_ context.Context) ([]domain.RecordSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RecordSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *RecordStore) Create(_ context.Context, snap domain.RecordSnapshot) (domain.RecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = domain.RecordID(uuid.NewString())
	}
	snap.UpdatedAt = time.Now()

	s.records[snap.ID] = snap
	s.order = append(s.order, snap.ID)
	return snap, nil
}

func (s *RecordStore) Patch(_ context.Context, id domain.RecordID, data domain.Interaction) (domain.RecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.records[id]
	if !ok {
		return domain.RecordSnapshot{}, domain.ErrRecordNotFound
	}

	snap.Data = data
	snap.UpdatedAt = time.Now()
	s.records[id] = snap
	return snap, nil
}

func (s *RecordStore) Delete(_ context.Context, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(s.records, id)
	for idx, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
			break
		}
	}
	return nil
}
