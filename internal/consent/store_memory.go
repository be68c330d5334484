package consent

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"consentledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the reference implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu       sync.RWMutex
	consents map[uuid.UUID]*Consent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{consents: make(map[uuid.UUID]*Consent)}
}

func (s *InMemoryStore) Save(_ context.Context, consent *Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[consent.ID] = cloneConsent(consent)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.consents[id]; ok {
		return cloneConsent(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByPatientRef(_ context.Context, patientRef string) ([]*Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Consent
	for _, c := range s.consents {
		if c.PatientRef == patientRef {
			out = append(out, cloneConsent(c))
		}
	}
	sortConsents(out)
	return out, nil
}

func (s *InMemoryStore) FindActiveByPatientRefAndScope(_ context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []*Consent
	for _, c := range s.consents {
		if c.PatientRef == patientRef && c.HasScope(scope) && c.IsValidAt(asOf) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sortConsents(candidates)
	return cloneConsent(candidates[0]), nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, id uuid.UUID, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consents[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.RevokedAt != nil {
		return sentinel.ErrInvalidState
	}
	at := revokedAt.UTC()
	c.RevokedAt = &at
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
	}
	return nil
}

// sortConsents orders most-recently-granted first, ID ascending on ties, so
// FindActive stays deterministic for a fixed store state.
func sortConsents(consents []*Consent) {
	sort.Slice(consents, func(i, j int) bool {
		if !consents[i].GrantedAt.Equal(consents[j].GrantedAt) {
			return consents[i].GrantedAt.After(consents[j].GrantedAt)
		}
		return consents[i].ID.String() < consents[j].ID.String()
	})
}

// cloneConsent keeps callers from mutating stored records through shared
// slices or pointers.
func cloneConsent(c *Consent) *Consent {
	out := *c
	out.Scopes = append([]Scope{}, c.Scopes...)
	if c.RevokedAt != nil {
		at := *c.RevokedAt
		out.RevokedAt = &at
	}
	return &out
}
