package patient

import (
	"context"
	"sync"

	"consentledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the reference implementation lightweight and testable.
type InMemoryStore struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{patients: make(map[string]*Patient)}
}

func (s *InMemoryStore) Save(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.patients[p.ReferenceID] = &clone
	return nil
}

func (s *InMemoryStore) FindByReferenceID(_ context.Context, referenceID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.patients[referenceID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) DeleteByReferenceID(_ context.Context, referenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[referenceID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.patients, referenceID)
	return nil
}
