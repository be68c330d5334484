//go:build integration

package consent_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"consentledger/internal/consent"
	"consentledger/pkg/platform/sentinel"
	"consentledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *consent.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.StartPostgres(s.T())
	s.store = consent.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "consents"))
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) newConsent(patientRef string, scopes []consent.Scope, grantedAt, expiresAt time.Time) *consent.Consent {
	c, err := consent.NewConsent(patientRef, scopes, grantedAt, expiresAt, s.now)
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestSaveAndFindByID() {
	ctx := context.Background()
	c := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView, consent.ScopeAppointmentReminder}, s.now, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.Equal(c.PatientRef, found.PatientRef)
	s.Equal(c.Scopes, found.Scopes)
	s.True(c.ExpiresAt.Equal(found.ExpiresAt))
	s.Nil(found.RevokedAt)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindActiveByPatientRefAndScope() {
	ctx := context.Background()

	expired := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now.Add(-48*time.Hour), s.now.Add(-24*time.Hour))
	older := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now.Add(-2*time.Hour), s.now.Add(24*time.Hour))
	newer := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now.Add(-time.Hour), s.now.Add(24*time.Hour))
	otherScope := s.newConsent("patient-1", []consent.Scope{consent.ScopeMedicationReminder}, s.now, s.now.Add(24*time.Hour))
	for _, c := range []*consent.Consent{expired, older, newer, otherScope} {
		s.Require().NoError(s.store.Save(ctx, c))
	}

	s.Run("picks the most recently granted valid consent", func() {
		found, err := s.store.FindActiveByPatientRefAndScope(ctx, "patient-1", consent.ScopePatientView, s.now)
		s.Require().NoError(err)
		s.Equal(newer.ID, found.ID)
	})

	s.Run("expiry boundary is strict", func() {
		_, err := s.store.FindActiveByPatientRefAndScope(ctx, "patient-1", consent.ScopePatientView, newer.ExpiresAt)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("scope must match exactly", func() {
		_, err := s.store.FindActiveByPatientRefAndScope(ctx, "patient-1", consent.ScopeEmergencyContactNotify, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("revoked consents are excluded from the revocation instant", func() {
		s.Require().NoError(s.store.MarkRevoked(ctx, newer.ID, s.now))

		found, err := s.store.FindActiveByPatientRefAndScope(ctx, "patient-1", consent.ScopePatientView, s.now)
		s.Require().NoError(err)
		s.Equal(older.ID, found.ID)
	})
}

func (s *PostgresStoreSuite) TestListByPatientRefOrdering() {
	ctx := context.Background()
	early := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now.Add(-2*time.Hour), s.now.Add(time.Hour))
	late := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now.Add(-time.Hour), s.now.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, early))
	s.Require().NoError(s.store.Save(ctx, late))

	out, err := s.store.ListByPatientRef(ctx, "patient-1")
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal(late.ID, out[0].ID)
	s.Equal(early.ID, out[1].ID)
}

func (s *PostgresStoreSuite) TestMarkRevoked() {
	ctx := context.Background()
	c := s.newConsent("patient-1", []consent.Scope{consent.ScopePatientView}, s.now, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, c))

	revokedAt := s.now.Add(10 * time.Minute)
	s.Require().NoError(s.store.MarkRevoked(ctx, c.ID, revokedAt))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.RevokedAt)
	s.True(revokedAt.Equal(*found.RevokedAt))

	s.ErrorIs(s.store.MarkRevoked(ctx, c.ID, revokedAt), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.MarkRevoked(ctx, uuid.New(), revokedAt), sentinel.ErrNotFound)
}
