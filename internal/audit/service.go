package audit

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"consentledger/internal/platform/metrics"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

// Mirror fans a durably appended record out to an external sink (SIEM topic).
// It runs strictly after the store write and is best-effort: a mirror failure
// never fails the append.
type Mirror interface {
	Publish(record Record) error
}

// Ledger owns the ledger's only write path and appends synchronously: a
// record is durable before Append returns, which is what lets callers treat
// "audited" as a precondition of reporting success.
type Ledger struct {
	store   Store
	mirror  Mirror
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// LedgerOption configures optional collaborators.
type LedgerOption func(*Ledger)

// WithMirror attaches a post-append fan-out sink.
func WithMirror(m Mirror) LedgerOption {
	return func(l *Ledger) {
		l.mirror = m
	}
}

// NewLedger wires the ledger with its store. logger and metrics may be nil in tests.
func NewLedger(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...LedgerOption) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		store:   store,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("consentledger/audit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records one immutable fact. The ID and timestamp are assigned here;
// attribution (user ID, correlation ID) is read from the request context set
// by middleware. A store failure surfaces as persistence_failure, which the
// enclosing operation must treat as fatal.
func (l *Ledger) Append(ctx context.Context, eventType EventType, patientRef, details string) (Record, error) {
	ctx, span := l.tracer.Start(ctx, "audit.Append", trace.WithAttributes(
		attribute.String("audit.event_type", string(eventType)),
		attribute.String("audit.patient_ref", patientRef),
	))
	defer span.End()

	record := NewRecord(eventType, patientRef, details, requestcontext.Now(ctx))
	record.UserID = requestcontext.UserID(ctx)
	record.CorrelationID = requestcontext.CorrelationID(ctx)

	if err := l.store.Append(ctx, record); err != nil {
		l.metrics.IncAuditAppendFailures()
		l.logger.ErrorContext(ctx, "audit append failed",
			"event_type", string(eventType),
			"patient_ref", patientRef,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Record{}, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "audit record could not be written")
	}

	l.metrics.IncAuditRecordsAppended()
	l.logger.InfoContext(ctx, "audit record appended",
		"audit_id", record.ID.String(),
		"event_type", string(eventType),
		"patient_ref", patientRef,
		"correlation_id", record.CorrelationID,
	)

	if l.mirror != nil {
		if err := l.mirror.Publish(record); err != nil {
			l.logger.WarnContext(ctx, "audit mirror publish failed",
				"audit_id", record.ID.String(),
				"error", err,
			)
		}
	}
	return record, nil
}

// QueryByPatient returns all records for a patient reference, timestamp ascending.
func (l *Ledger) QueryByPatient(ctx context.Context, patientRef string) ([]Record, error) {
	records, err := l.store.FindByPatientRef(ctx, patientRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query audit ledger")
	}
	return records, nil
}

// QueryByEventType returns all records of one event type, timestamp ascending.
func (l *Ledger) QueryByEventType(ctx context.Context, eventType EventType) ([]Record, error) {
	records, err := l.store.FindByEventType(ctx, eventType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query audit ledger")
	}
	return records, nil
}

// QueryByTimeRange returns all records with start <= timestamp <= end, ascending.
func (l *Ledger) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	records, err := l.store.FindByTimestampRange(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query audit ledger")
	}
	return records, nil
}

// QueryByPatientAndEventType composes the patient and event-type filters.
func (l *Ledger) QueryByPatientAndEventType(ctx context.Context, patientRef string, eventType EventType) ([]Record, error) {
	records, err := l.store.FindByPatientRefAndEventType(ctx, patientRef, eventType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "failed to query audit ledger")
	}
	return records, nil
}
