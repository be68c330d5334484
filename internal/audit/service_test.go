package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

// =============================================================================
// Audit Ledger Test Suite
// =============================================================================
// The ledger's contract is narrow but load-bearing: appends are durable before
// Append returns, attribution comes from the request context, and the mirror
// can never fail an append.

type LedgerSuite struct {
	suite.Suite
	store  *InMemoryStore
	ledger *Ledger
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ledger = NewLedger(s.store, nil, nil)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *LedgerSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

// =============================================================================
// Append Tests
// =============================================================================

func (s *LedgerSuite) TestAppend() {
	s.Run("assigns id and server timestamp", func() {
		record, err := s.ledger.Append(s.ctx(), EventPatientAccessed, "patient-1", "record viewed")
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, record.ID)
		s.Equal(s.now, record.Timestamp)
		s.Equal(EventPatientAccessed, record.EventType)
	})

	s.Run("reads attribution from context", func() {
		ctx := requestcontext.WithUserID(s.ctx(), "clinician-9")
		ctx = requestcontext.WithCorrelationID(ctx, "corr-123")

		record, err := s.ledger.Append(ctx, EventConsentGranted, "patient-1", "")
		s.Require().NoError(err)
		s.Equal("clinician-9", record.UserID)
		s.Equal("corr-123", record.CorrelationID)
	})

	s.Run("store failure surfaces as persistence failure", func() {
		failing := NewLedger(failingStore{}, nil, nil)
		_, err := failing.Append(s.ctx(), EventPatientCreated, "patient-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailure))
	})
}

func (s *LedgerSuite) TestAppendPreservesOrder() {
	ctx := context.Background()
	const n = 20
	for i := 0; i < n; i++ {
		at := s.now.Add(time.Duration(i) * time.Second)
		_, err := s.ledger.Append(requestcontext.WithTime(ctx, at), EventPatientAccessed, "patient-1", fmt.Sprintf("access %d", i))
		s.Require().NoError(err)
	}

	records, err := s.ledger.QueryByPatient(ctx, "patient-1")
	s.Require().NoError(err)
	s.Require().Len(records, n)
	for i := 1; i < n; i++ {
		s.False(records[i].Timestamp.Before(records[i-1].Timestamp))
	}
	s.Equal("access 0", records[0].Details)
	s.Equal(fmt.Sprintf("access %d", n-1), records[n-1].Details)
}

func (s *LedgerSuite) TestConcurrentAppendsAllSurvive() {
	ctx := s.ctx()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.ledger.Append(ctx, EventConsentValidated, "patient-conc", fmt.Sprintf("check %d", i))
		}(i)
	}
	wg.Wait()

	records, err := s.ledger.QueryByPatient(ctx, "patient-conc")
	s.Require().NoError(err)
	s.Len(records, goroutines)
}

// =============================================================================
// Mirror Tests
// =============================================================================

func (s *LedgerSuite) TestMirror() {
	s.Run("publishes after a durable append", func() {
		mirror := &recordingMirror{}
		ledger := NewLedger(s.store, nil, nil, WithMirror(mirror))

		record, err := ledger.Append(s.ctx(), EventPatientCreated, "patient-1", "")
		s.Require().NoError(err)
		s.Require().Len(mirror.published, 1)
		s.Equal(record.ID, mirror.published[0].ID)
	})

	s.Run("mirror failure does not fail the append", func() {
		mirror := &recordingMirror{err: errors.New("broker down")}
		ledger := NewLedger(s.store, nil, nil, WithMirror(mirror))

		_, err := ledger.Append(s.ctx(), EventPatientCreated, "patient-2", "")
		s.Require().NoError(err)

		records, err := ledger.QueryByPatient(s.ctx(), "patient-2")
		s.Require().NoError(err)
		s.Len(records, 1)
	})

	s.Run("nothing is mirrored when the store write fails", func() {
		mirror := &recordingMirror{}
		ledger := NewLedger(failingStore{}, nil, nil, WithMirror(mirror))

		_, err := ledger.Append(s.ctx(), EventPatientCreated, "patient-3", "")
		s.Require().Error(err)
		s.Empty(mirror.published)
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *LedgerSuite) TestQueries() {
	ctx := context.Background()
	base := s.now
	appends := []struct {
		at         time.Time
		eventType  EventType
		patientRef string
	}{
		{base, EventPatientCreated, "patient-1"},
		{base.Add(time.Minute), EventPatientAccessed, "patient-1"},
		{base.Add(2 * time.Minute), EventPatientAccessed, "patient-2"},
		{base.Add(3 * time.Minute), EventConsentDenied, "patient-1"},
	}
	for _, a := range appends {
		_, err := s.ledger.Append(requestcontext.WithTime(ctx, a.at), a.eventType, a.patientRef, "")
		s.Require().NoError(err)
	}

	s.Run("by patient", func() {
		records, err := s.ledger.QueryByPatient(ctx, "patient-1")
		s.Require().NoError(err)
		s.Len(records, 3)
	})

	s.Run("by event type", func() {
		records, err := s.ledger.QueryByEventType(ctx, EventPatientAccessed)
		s.Require().NoError(err)
		s.Len(records, 2)
	})

	s.Run("by time range is inclusive on both ends", func() {
		records, err := s.ledger.QueryByTimeRange(ctx, base.Add(time.Minute), base.Add(3*time.Minute))
		s.Require().NoError(err)
		s.Len(records, 3)
	})

	s.Run("by patient and event type", func() {
		records, err := s.ledger.QueryByPatientAndEventType(ctx, "patient-1", EventConsentDenied)
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal(EventConsentDenied, records[0].EventType)
	})

	s.Run("unknown patient yields empty, not error", func() {
		records, err := s.ledger.QueryByPatient(ctx, "nobody")
		s.NoError(err)
		s.Empty(records)
	})
}

// =============================================================================
// Test Doubles
// =============================================================================

type failingStore struct{}

func (failingStore) Append(context.Context, Record) error { return errors.New("disk full") }
func (failingStore) FindByPatientRef(context.Context, string) ([]Record, error) {
	return nil, errors.New("disk full")
}
func (failingStore) FindByEventType(context.Context, EventType) ([]Record, error) {
	return nil, errors.New("disk full")
}
func (failingStore) FindByTimestampRange(context.Context, time.Time, time.Time) ([]Record, error) {
	return nil, errors.New("disk full")
}
func (failingStore) FindByPatientRefAndEventType(context.Context, string, EventType) ([]Record, error) {
	return nil, errors.New("disk full")
}

type recordingMirror struct {
	mu        sync.Mutex
	err       error
	published []Record
}

func (m *recordingMirror) Publish(record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, record)
	return nil
}
