package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConsentsGranted       prometheus.Counter
	ConsentsRevoked       prometheus.Counter
	AuthorizationsAllowed prometheus.Counter
	AuthorizationsDenied  prometheus.Counter
	AuditRecordsAppended  prometheus.Counter
	AuditAppendFailures   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConsentsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_consents_granted_total",
			Help: "Total number of consent grants created",
		}),
		ConsentsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_consents_revoked_total",
			Help: "Total number of consent grants revoked",
		}),
		AuthorizationsAllowed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_authorizations_allowed_total",
			Help: "Total number of authorization checks that found an active consent",
		}),
		AuthorizationsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_authorizations_denied_total",
			Help: "Total number of authorization checks denied for missing consent",
		}),
		AuditRecordsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_audit_records_appended_total",
			Help: "Total number of audit records durably appended",
		}),
		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consentledger_audit_append_failures_total",
			Help: "Total number of audit append attempts rejected by the store",
		}),
	}
}

// IncConsentsGranted increments the consent grant counter, tolerating a nil receiver
// so services wired without metrics stay quiet.
func (m *Metrics) IncConsentsGranted() {
	if m != nil {
		m.ConsentsGranted.Inc()
	}
}

func (m *Metrics) IncConsentsRevoked() {
	if m != nil {
		m.ConsentsRevoked.Inc()
	}
}

func (m *Metrics) IncAuthorizationsAllowed() {
	if m != nil {
		m.AuthorizationsAllowed.Inc()
	}
}

func (m *Metrics) IncAuthorizationsDenied() {
	if m != nil {
		m.AuthorizationsDenied.Inc()
	}
}

func (m *Metrics) IncAuditRecordsAppended() {
	if m != nil {
		m.AuditRecordsAppended.Inc()
	}
}

func (m *Metrics) IncAuditAppendFailures() {
	if m != nil {
		m.AuditAppendFailures.Inc()
	}
}
