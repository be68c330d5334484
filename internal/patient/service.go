package patient

import (
	"context"
	"errors"
	"log/slog"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/platform/sentinel"
	"consentledger/pkg/requestcontext"
)

// Directory orchestrates patient-record operations. It is the reference
// consent-gated caller: every operation that touches patient data first asks
// the authority (when gated), then appends to the ledger, and only then
// reports success. When the audit write fails after a primary mutation the
// mutation is reversed, so a caller never observes success without a trail.
type Directory struct {
	store     Store
	authority ConsentAuthority
	ledger    AuditLedger
	notifier  Notifier
	logger    *slog.Logger
}

// NewDirectory wires the directory with its collaborators. notifier may be
// nil when emergency-contact notification is not deployed; logger may be nil
// in tests.
func NewDirectory(store Store, authority ConsentAuthority, ledger AuditLedger, notifier Notifier, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:     store,
		authority: authority,
		ledger:    ledger,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create registers a new patient record. Not consent-gated (the patient does
// not exist yet), but audited: if the ledger write fails the insert is
// compensated and the caller sees the failure.
func (d *Directory) Create(ctx context.Context, p *Patient) error {
	d.logger.InfoContext(ctx, "creating patient", "patient_ref", p.ReferenceID)

	if err := d.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to save patient")
	}
	if _, err := d.ledger.Append(ctx, audit.EventPatientCreated, p.ReferenceID, "Patient record created"); err != nil {
		if derr := d.store.DeleteByReferenceID(ctx, p.ReferenceID); derr != nil {
			d.logger.ErrorContext(ctx, "compensation failed after audit error",
				"patient_ref", p.ReferenceID,
				"error", derr,
			)
		}
		return err
	}
	return nil
}

// Get returns a patient record. PHI-revealing, so it is gated on PATIENT_VIEW
// and the access is in the ledger before the record is handed back.
func (d *Directory) Get(ctx context.Context, referenceID string) (*Patient, error) {
	d.logger.InfoContext(ctx, "retrieving patient", "patient_ref", referenceID)

	if _, err := d.authorize(ctx, referenceID, consent.ScopePatientView); err != nil {
		return nil, err
	}

	p, err := d.store.FindByReferenceID(ctx, referenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to load patient")
	}

	if _, err := d.ledger.Append(ctx, audit.EventPatientAccessed, referenceID, "Patient record accessed"); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a patient's mutable fields. Identity is preserved: the
// stored record keeps its primary ID and CreatedAt regardless of what the
// caller constructed. If the audit write fails the previous state is restored.
func (d *Directory) Update(ctx context.Context, p *Patient) error {
	d.logger.InfoContext(ctx, "updating patient", "patient_ref", p.ReferenceID)

	previous, err := d.store.FindByReferenceID(ctx, p.ReferenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "patient not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to load patient")
	}

	p.ID = previous.ID
	p.CreatedAt = previous.CreatedAt
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := d.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to save patient")
	}
	if _, err := d.ledger.Append(ctx, audit.EventPatientUpdated, p.ReferenceID, "Patient record updated"); err != nil {
		if serr := d.store.Save(ctx, previous); serr != nil {
			d.logger.ErrorContext(ctx, "compensation failed after audit error",
				"patient_ref", p.ReferenceID,
				"error", serr,
			)
		}
		return err
	}
	return nil
}

// Delete removes a patient record. If the audit write fails the record is
// re-saved and the caller sees the failure.
func (d *Directory) Delete(ctx context.Context, referenceID string) error {
	d.logger.InfoContext(ctx, "deleting patient", "patient_ref", referenceID)

	previous, err := d.store.FindByReferenceID(ctx, referenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "patient not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to load patient")
	}

	if err := d.store.DeleteByReferenceID(ctx, referenceID); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to delete patient")
	}
	if _, err := d.ledger.Append(ctx, audit.EventPatientDeleted, referenceID, "Patient record deleted"); err != nil {
		if serr := d.store.Save(ctx, previous); serr != nil {
			d.logger.ErrorContext(ctx, "compensation failed after audit error",
				"patient_ref", referenceID,
				"error", serr,
			)
		}
		return err
	}
	return nil
}

// NotifyEmergencyContact sends a message to the patient's emergency contact.
// Gated on EMERGENCY_CONTACT_NOTIFY; the NOTIFICATION_SENT record is durable
// before the caller hears that the notification went out. The message body
// reaches only the notifier port, never the ledger.
func (d *Directory) NotifyEmergencyContact(ctx context.Context, referenceID, message string) error {
	if d.notifier == nil {
		return dErrors.New(dErrors.CodeInternal, "notifier not configured")
	}
	d.logger.InfoContext(ctx, "notifying emergency contact", "patient_ref", referenceID)

	if _, err := d.authorize(ctx, referenceID, consent.ScopeEmergencyContactNotify); err != nil {
		return err
	}

	p, err := d.store.FindByReferenceID(ctx, referenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "patient not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to load patient")
	}
	if p.EmergencyContactPhone == "" {
		return dErrors.New(dErrors.CodeValidation, "patient has no emergency contact on file")
	}

	if err := d.notifier.NotifyEmergencyContact(ctx, p.EmergencyContactName, p.EmergencyContactPhone, message); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "notification delivery failed")
	}
	if _, err := d.ledger.Append(ctx, audit.EventNotificationSent, referenceID, "Emergency contact notified"); err != nil {
		return err
	}
	return nil
}

// authorize runs the consent gate and records the decision. Exactly one
// ledger record is written per check: CONSENT_VALIDATED on allow,
// CONSENT_DENIED on denial, both before the caller observes the outcome.
func (d *Directory) authorize(ctx context.Context, referenceID string, scope consent.Scope) (*consent.Consent, error) {
	record, err := d.authority.Authorize(ctx, referenceID, scope, requestcontext.Now(ctx))
	if dErrors.HasCode(err, dErrors.CodeConsentDenied) {
		if _, aerr := d.ledger.Append(ctx, audit.EventConsentDenied, referenceID, "Consent denied for scope: "+scope); aerr != nil {
			return nil, aerr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if _, aerr := d.ledger.Append(ctx, audit.EventConsentValidated, referenceID, "Consent valid for scope: "+scope); aerr != nil {
		return nil, aerr
	}
	return record, nil
}
