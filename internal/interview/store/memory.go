package store

import (
	"context"
	"sync"
	"time"

	"visaflow/internal/interview/models"
	"visaflow/pkg/platform/sentinel"
)

// InMemoryStore keeps encoded sessions so callers never share mutable state
// with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	expiry   map[string]time.Time
	clock    func() time.Time
}

func NewInMemory(clock func() time.Time) *InMemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryStore{
		sessions: make(map[string][]byte),
		expiry:   make(map[string]time.Time),
		clock:    clock,
	}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	b, ok := s.sessions[id]
	exp := s.expiry[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !exp.IsZero() && s.clock().After(exp) {
		s.mu.Lock()
		delete(s.sessions, id)
		delete(s.expiry, id)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	return decode(b)
}

func (s *InMemoryStore) Save(_ context.Context, session *models.Session) error {
	b, err := encode(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = b
	s.expiry[session.ID] = session.ExpiresAt
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.expiry, id)
	return nil
}
