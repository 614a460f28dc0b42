package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"payment-portal/backend/internal/session/domain"
)

// MemoryStore is an in-process Store for tests and single-node development.
// Expired records are treated as absent on read and swept lazily.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]*memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	rec       domain.Record
	expiresAt time.Time
}

// NewMemoryStore returns a MemoryStore with the given inactivity TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		records: make(map[string]*memoryRecord),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock; tests use it to simulate expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(ctx context.Context, principalID, role string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(principalID, role)
}

func (s *MemoryStore) Regenerate(ctx context.Context, oldID, principalID, role string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oldID != "" {
		delete(s.records, oldID)
	}
	return s.createLocked(principalID, role)
}

func (s *MemoryStore) Read(ctx context.Context, id string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(mr.expiresAt) {
		delete(s.records, id)
		return nil, nil
	}
	rec := mr.rec
	return &rec, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.records[id]
	if !ok || !s.now().Before(mr.expiresAt) {
		return nil
	}
	now := s.now().UTC()
	mr.rec.LastActiveAt = now
	mr.expiresAt = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) SetCSRFToken(ctx context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.records[id]
	if !ok || !s.now().Before(mr.expiresAt) {
		return errors.New("session store: no such session")
	}
	mr.rec.CSRFToken = token
	return nil
}

func (s *MemoryStore) createLocked(principalID, role string) (*domain.Record, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec := domain.Record{
		ID:           id,
		PrincipalID:  principalID,
		Role:         role,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.records[id] = &memoryRecord{rec: rec, expiresAt: now.Add(s.ttl)}
	return &rec, nil
}
