package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels the kind of action a record captures. The vocabulary is
// closed-ish: these cover every action the service performs today, but the
// ledger accepts new types without a schema change.
type EventType string

const (
	EventPatientCreated   EventType = "PATIENT_CREATED"
	EventPatientAccessed  EventType = "PATIENT_ACCESSED"
	EventPatientUpdated   EventType = "PATIENT_UPDATED"
	EventPatientDeleted   EventType = "PATIENT_DELETED"
	EventConsentGranted   EventType = "CONSENT_GRANTED"
	EventConsentValidated EventType = "CONSENT_VALIDATED"
	EventConsentDenied    EventType = "CONSENT_DENIED"
	EventConsentRevoked   EventType = "CONSENT_REVOKED"
	EventNotificationSent EventType = "NOTIFICATION_SENT"
)

// Record is one immutable fact in the ledger. It is built only through
// NewRecord and never changes afterward; the ledger exposes no update or
// delete path, so immutability is structural rather than a call-site policy.
//
// Details carries a free-text description constrained to reference IDs and
// event context. PHI never appears here: the append path simply accepts no
// PHI-bearing types.
type Record struct {
	ID            uuid.UUID
	Timestamp     time.Time
	EventType     EventType
	PatientRef    string
	Details       string
	UserID        string
	CorrelationID string
}

// NewRecord constructs a record with a server-assigned ID and timestamp.
// Caller-supplied timestamps are deliberately impossible: the instant comes
// from the ledger's clock, never from input.
func NewRecord(eventType EventType, patientRef, details string, now time.Time) Record {
	return Record{
		ID:         uuid.New(),
		Timestamp:  now.UTC(),
		EventType:  eventType,
		PatientRef: patientRef,
		Details:    details,
	}
}
