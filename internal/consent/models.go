package consent

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "consentledger/pkg/domain-errors"
)

// Scope names a category of access a patient can grant. The vocabulary is
// open: new scopes are introduced at grant time, not registered centrally.
// There is no implicit hierarchy between scopes; a grant for one scope never
// satisfies a check for another.
type Scope = string

const (
	ScopePatientView            Scope = "PATIENT_VIEW"
	ScopeEmergencyContactNotify Scope = "EMERGENCY_CONTACT_NOTIFY"
	ScopeAppointmentReminder    Scope = "APPOINTMENT_REMINDER"
	ScopeMedicationReminder     Scope = "MEDICATION_REMINDER"
)

// Consent is a scoped, time-bounded grant of permission tied to an opaque
// patient reference. It mutates only through the revoke transition; every
// other field is fixed at creation.
type Consent struct {
	ID         uuid.UUID
	PatientRef string
	Scopes     []Scope
	GrantedAt  time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RevokedAt  *time.Time
}

// NewConsent validates and constructs a grant. It fails with an invalid_grant
// domain error when the patient reference is blank, the scope set is empty
// after dedup, or expiresAt is not strictly after grantedAt. Scopes are
// deduplicated and sorted so equality and tie-breaks are stable.
func NewConsent(patientRef string, scopes []Scope, grantedAt, expiresAt, now time.Time) (*Consent, error) {
	if strings.TrimSpace(patientRef) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "patient reference is required")
	}
	deduped := dedupeScopes(scopes)
	if len(deduped) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "at least one scope is required")
	}
	if !expiresAt.After(grantedAt) {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "expiry must be after grant time")
	}
	now = now.UTC()
	return &Consent{
		ID:         uuid.New(),
		PatientRef: patientRef,
		Scopes:     deduped,
		GrantedAt:  grantedAt.UTC(),
		ExpiresAt:  expiresAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HasScope reports whether the grant covers the given scope exactly.
func (c *Consent) HasScope(scope Scope) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsValidAt reports whether the grant authorizes access at instant t.
// The check is strictly t < ExpiresAt; there is no grace period and no
// not-yet-granted check beyond scope membership at query time. A revoked
// grant is invalid from its revocation instant onward.
func (c *Consent) IsValidAt(t time.Time) bool {
	if c.RevokedAt != nil && !t.Before(*c.RevokedAt) {
		return false
	}
	return t.Before(c.ExpiresAt)
}

// Revoke marks the grant revoked at the given instant. Revocation keeps the
// record so the consent history itself stays auditable; nothing is deleted.
// Revoking an already-revoked grant is an invalid-state fact the service
// translates to not_found.
func (c *Consent) Revoke(revokedAt time.Time) error {
	if c.RevokedAt != nil {
		return dErrors.New(dErrors.CodeNotFound, "consent already revoked")
	}
	at := revokedAt.UTC()
	c.RevokedAt = &at
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
	}
	return nil
}

func dedupeScopes(scopes []Scope) []Scope {
	seen := make(map[Scope]struct{}, len(scopes))
	out := make([]Scope, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
