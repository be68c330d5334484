package consent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"consentledger/internal/platform/metrics"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/platform/sentinel"
	"consentledger/pkg/requestcontext"
)

// Authority owns the consent data model and answers validity queries. It is
// stateless over its store and holds the only write path into it. Every check
// re-evaluates against the supplied instant; decisions are never cached.
type Authority struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewAuthority wires the authority with its store and ambient collaborators.
// logger and metrics may be nil in tests.
func NewAuthority(store Store, logger *slog.Logger, m *metrics.Metrics) *Authority {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authority{
		store:   store,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("consentledger/consent"),
	}
}

// Grant validates and persists a new consent record. It fails with an
// invalid_grant error on empty scopes, blank patient reference, or an expiry
// not strictly after the grant instant; nothing is persisted on failure.
func (a *Authority) Grant(ctx context.Context, patientRef string, scopes []Scope, grantedAt, expiresAt time.Time) (*Consent, error) {
	record, err := NewConsent(patientRef, scopes, grantedAt, expiresAt, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to persist consent grant")
	}

	a.logger.InfoContext(ctx, "consent granted",
		"consent_id", record.ID.String(),
		"patient_ref", record.PatientRef,
		"scopes", record.Scopes,
		"expires_at", record.ExpiresAt,
	)
	a.metrics.IncConsentsGranted()
	return record, nil
}

// Revoke ends a grant's future validity, keeping the record for traceability.
// Revoking a nonexistent or already-revoked consent reports not_found.
func (a *Authority) Revoke(ctx context.Context, consentID uuid.UUID) error {
	err := a.store.MarkRevoked(ctx, consentID, requestcontext.Now(ctx))
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeNotFound, "consent not found")
	default:
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to revoke consent")
	}

	a.logger.InfoContext(ctx, "consent revoked", "consent_id", consentID.String())
	a.metrics.IncConsentsRevoked()
	return nil
}

// FindByID returns a single grant by identifier.
func (a *Authority) FindByID(ctx context.Context, consentID uuid.UUID) (*Consent, error) {
	record, err := a.store.FindByID(ctx, consentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query consent store")
	}
	return record, nil
}

// List returns every grant for a patient reference, revoked and expired included.
func (a *Authority) List(ctx context.Context, patientRef string) ([]*Consent, error) {
	records, err := a.store.ListByPatientRef(ctx, patientRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query consent store")
	}
	return records, nil
}

// FindActive returns the most relevant consent granting scope to patientRef
// and valid at asOf, or nil when none exists. The choice among multiple
// qualifying grants is deterministic for a fixed store state.
func (a *Authority) FindActive(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error) {
	record, err := a.store.FindActiveByPatientRefAndScope(ctx, patientRef, scope, asOf.UTC())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query consent store")
	}
	return record, nil
}

// IsAuthorized reports whether FindActive would return a consent.
func (a *Authority) IsAuthorized(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (bool, error) {
	record, err := a.FindActive(ctx, patientRef, scope, asOf)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// Authorize is the enforcement point for consent-gated operations. It returns
// the same consent FindActive would, or consent_denied when none is active.
// Callers proceed only after a successful return.
func (a *Authority) Authorize(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error) {
	ctx, span := a.tracer.Start(ctx, "consent.Authorize", trace.WithAttributes(
		attribute.String("consent.patient_ref", patientRef),
		attribute.String("consent.scope", scope),
	))
	defer span.End()

	record, err := a.FindActive(ctx, patientRef, scope, asOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if record == nil {
		a.logger.WarnContext(ctx, "no active consent",
			"patient_ref", patientRef,
			"scope", scope,
		)
		a.metrics.IncAuthorizationsDenied()
		span.SetAttributes(attribute.Bool("consent.authorized", false))
		return nil, dErrors.New(dErrors.CodeConsentDenied, "no active consent for scope "+scope)
	}

	a.metrics.IncAuthorizationsAllowed()
	span.SetAttributes(
		attribute.Bool("consent.authorized", true),
		attribute.String("consent.id", record.ID.String()),
	)
	return record, nil
}
