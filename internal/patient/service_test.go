package patient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
	"consentledger/internal/patient"
	"consentledger/internal/patient/mocks"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/platform/sentinel"
	"consentledger/pkg/requestcontext"
)

// =============================================================================
// Patient Directory Test Suite
// =============================================================================
// The directory is where the write-before-success rule is enforced: a caller
// must never observe a successful mutation whose audit record did not land.
// These tests pin the ordering and the compensation paths with mocks.

type DirectorySuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *patient.InMemoryStore
	authority *mocks.MockConsentAuthority
	ledger    *mocks.MockAuditLedger
	notifier  *mocks.MockNotifier
	directory *patient.Directory
	now       time.Time
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = patient.NewInMemoryStore()
	s.authority = mocks.NewMockConsentAuthority(s.ctrl)
	s.ledger = mocks.NewMockAuditLedger(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.directory = patient.NewDirectory(s.store, s.authority, s.ledger, s.notifier, nil)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *DirectorySuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *DirectorySuite) newPatient(referenceID string) *patient.Patient {
	p, err := patient.NewPatient(referenceID, "Jordan Doe", time.Date(1984, 5, 2, 0, 0, 0, 0, time.UTC), s.now)
	s.Require().NoError(err)
	p.EmergencyContactName = "Sam Doe"
	p.EmergencyContactPhone = "+15550100"
	return p
}

func (s *DirectorySuite) expectAppend(eventType audit.EventType) *gomock.Call {
	return s.ledger.EXPECT().
		Append(gomock.Any(), eventType, gomock.Any(), gomock.Any()).
		Return(audit.Record{}, nil)
}

func (s *DirectorySuite) expectAllow(referenceID string, scope consent.Scope) {
	s.authority.EXPECT().
		Authorize(gomock.Any(), referenceID, scope, gomock.Any()).
		Return(&consent.Consent{PatientRef: referenceID, Scopes: []consent.Scope{scope}}, nil)
	s.expectAppend(audit.EventConsentValidated)
}

func (s *DirectorySuite) expectDeny(referenceID string, scope consent.Scope) {
	s.authority.EXPECT().
		Authorize(gomock.Any(), referenceID, scope, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConsentDenied, "no active consent"))
	s.expectAppend(audit.EventConsentDenied)
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *DirectorySuite) TestCreate() {
	s.Run("audits before reporting success", func() {
		s.expectAppend(audit.EventPatientCreated)

		p := s.newPatient("patient-create")
		s.Require().NoError(s.directory.Create(s.ctx(), p))

		stored, err := s.store.FindByReferenceID(s.ctx(), "patient-create")
		s.Require().NoError(err)
		s.Equal(p.Name, stored.Name)
	})

	s.Run("audit failure rolls the insert back", func() {
		s.ledger.EXPECT().
			Append(gomock.Any(), audit.EventPatientCreated, "patient-roll", gomock.Any()).
			Return(audit.Record{}, dErrors.New(dErrors.CodePersistenceFailure, "ledger down"))

		err := s.directory.Create(s.ctx(), s.newPatient("patient-roll"))
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailure))

		_, err = s.store.FindByReferenceID(s.ctx(), "patient-roll")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// =============================================================================
// Get Tests
// =============================================================================

func (s *DirectorySuite) TestGet() {
	s.Run("allowed access is audited", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-get")))

		s.expectAllow("patient-get", consent.ScopePatientView)
		s.expectAppend(audit.EventPatientAccessed)

		p, err := s.directory.Get(s.ctx(), "patient-get")
		s.Require().NoError(err)
		s.Equal("patient-get", p.ReferenceID)
	})

	s.Run("denial is audited and surfaces as consent_denied", func() {
		s.expectDeny("patient-get", consent.ScopePatientView)

		_, err := s.directory.Get(s.ctx(), "patient-get")
		s.True(dErrors.HasCode(err, dErrors.CodeConsentDenied))
	})

	s.Run("missing patient with valid consent reports not_found", func() {
		s.expectAllow("patient-absent", consent.ScopePatientView)

		_, err := s.directory.Get(s.ctx(), "patient-absent")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("audit failure on access withholds the record", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-heldback")))

		s.expectAllow("patient-heldback", consent.ScopePatientView)
		s.ledger.EXPECT().
			Append(gomock.Any(), audit.EventPatientAccessed, "patient-heldback", gomock.Any()).
			Return(audit.Record{}, dErrors.New(dErrors.CodePersistenceFailure, "ledger down"))

		p, err := s.directory.Get(s.ctx(), "patient-heldback")
		s.Nil(p)
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailure))
	})
}

// =============================================================================
// Update Tests
// =============================================================================

func (s *DirectorySuite) TestUpdate() {
	s.Run("primary ID and CreatedAt survive an update", func() {
		s.expectAppend(audit.EventPatientCreated)
		original := s.newPatient("patient-id-stable")
		s.Require().NoError(s.directory.Create(s.ctx(), original))

		s.expectAppend(audit.EventPatientUpdated)
		replacement := s.newPatient("patient-id-stable")
		replacement.Name = "Renamed Patient"
		s.Require().NoError(s.directory.Update(s.ctx(), replacement))

		stored, err := s.store.FindByReferenceID(s.ctx(), "patient-id-stable")
		s.Require().NoError(err)
		s.Equal(original.ID, stored.ID)
		s.True(original.CreatedAt.Equal(stored.CreatedAt))
		s.Equal("Renamed Patient", stored.Name)
	})

	s.Run("audit failure restores the previous state", func() {
		s.expectAppend(audit.EventPatientCreated)
		original := s.newPatient("patient-upd")
		s.Require().NoError(s.directory.Create(s.ctx(), original))

		s.ledger.EXPECT().
			Append(gomock.Any(), audit.EventPatientUpdated, "patient-upd", gomock.Any()).
			Return(audit.Record{}, dErrors.New(dErrors.CodePersistenceFailure, "ledger down"))

		changed := s.newPatient("patient-upd")
		changed.Name = "Changed Name"
		err := s.directory.Update(s.ctx(), changed)
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailure))

		stored, err := s.store.FindByReferenceID(s.ctx(), "patient-upd")
		s.Require().NoError(err)
		s.Equal(original.Name, stored.Name)
	})

	s.Run("unknown patient reports not_found", func() {
		err := s.directory.Update(s.ctx(), s.newPatient("patient-ghost"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Delete Tests
// =============================================================================

func (s *DirectorySuite) TestDelete() {
	s.Run("deletes and audits", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-del")))

		s.expectAppend(audit.EventPatientDeleted)
		s.Require().NoError(s.directory.Delete(s.ctx(), "patient-del"))

		_, err := s.store.FindByReferenceID(s.ctx(), "patient-del")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("audit failure re-saves the record", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-del2")))

		s.ledger.EXPECT().
			Append(gomock.Any(), audit.EventPatientDeleted, "patient-del2", gomock.Any()).
			Return(audit.Record{}, dErrors.New(dErrors.CodePersistenceFailure, "ledger down"))

		err := s.directory.Delete(s.ctx(), "patient-del2")
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceFailure))

		stored, err := s.store.FindByReferenceID(s.ctx(), "patient-del2")
		s.Require().NoError(err)
		s.Equal("patient-del2", stored.ReferenceID)
	})
}

// =============================================================================
// NotifyEmergencyContact Tests
// =============================================================================

func (s *DirectorySuite) TestNotifyEmergencyContact() {
	s.Run("notifies and audits on active consent", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-not")))

		s.expectAllow("patient-not", consent.ScopeEmergencyContactNotify)
		s.notifier.EXPECT().
			NotifyEmergencyContact(gomock.Any(), "Sam Doe", "+15550100", "please call the clinic").
			Return(nil)
		s.expectAppend(audit.EventNotificationSent)

		s.Require().NoError(s.directory.NotifyEmergencyContact(s.ctx(), "patient-not", "please call the clinic"))
	})

	s.Run("denied consent stops before the notifier", func() {
		s.expectDeny("patient-not", consent.ScopeEmergencyContactNotify)

		err := s.directory.NotifyEmergencyContact(s.ctx(), "patient-not", "msg")
		s.True(dErrors.HasCode(err, dErrors.CodeConsentDenied))
	})

	s.Run("missing emergency contact is a validation error", func() {
		s.expectAppend(audit.EventPatientCreated)
		bare := s.newPatient("patient-bare")
		bare.EmergencyContactName = ""
		bare.EmergencyContactPhone = ""
		s.Require().NoError(s.directory.Create(s.ctx(), bare))

		s.expectAllow("patient-bare", consent.ScopeEmergencyContactNotify)

		err := s.directory.NotifyEmergencyContact(s.ctx(), "patient-bare", "msg")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("notifier failure is reported and nothing is audited as sent", func() {
		s.expectAppend(audit.EventPatientCreated)
		s.Require().NoError(s.directory.Create(s.ctx(), s.newPatient("patient-not2")))

		s.expectAllow("patient-not2", consent.ScopeEmergencyContactNotify)
		s.notifier.EXPECT().
			NotifyEmergencyContact(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("gateway timeout"))

		err := s.directory.NotifyEmergencyContact(s.ctx(), "patient-not2", "msg")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
