package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps the reference implementation lightweight and testable.
// Records are held in append order and re-sorted by timestamp on read so the
// ordering guarantee holds even when clocks are injected out of order in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) FindByPatientRef(_ context.Context, patientRef string) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.PatientRef == patientRef
	}), nil
}

func (s *InMemoryStore) FindByEventType(_ context.Context, eventType EventType) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.EventType == eventType
	}), nil
}

func (s *InMemoryStore) FindByTimestampRange(_ context.Context, start, end time.Time) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return !r.Timestamp.Before(start) && !r.Timestamp.After(end)
	}), nil
}

func (s *InMemoryStore) FindByPatientRefAndEventType(_ context.Context, patientRef string, eventType EventType) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.PatientRef == patientRef && r.EventType == eventType
	}), nil
}

func (s *InMemoryStore) filter(keep func(Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
