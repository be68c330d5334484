package patient

import (
	"context"
	"time"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mocks.go -package=mocks

// ConsentAuthority is the enforcement point for consent-gated operations.
// Defined per module to keep the directory decoupled from the authority's
// concrete type.
type ConsentAuthority interface {
	Authorize(ctx context.Context, patientRef string, scope consent.Scope, asOf time.Time) (*consent.Consent, error)
}

// AuditLedger records immutable facts. Append must complete durably before
// the calling operation reports success.
type AuditLedger interface {
	Append(ctx context.Context, eventType audit.EventType, patientRef, details string) (audit.Record, error)
}

// Notifier delivers messages to a patient's emergency contact. The transport
// (SMS, phone tree) lives behind this port; the directory only cares that
// delivery was accepted.
type Notifier interface {
	NotifyEmergencyContact(ctx context.Context, contactName, contactPhone, message string) error
}
