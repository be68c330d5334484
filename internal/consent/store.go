package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable-store contract for consent records. Implementations
// exist for memory, PostgreSQL, and Redis; the authority owns the only write
// path through it. Read methods must never expose half-written records.
type Store interface {
	// Save persists a new consent record atomically.
	Save(ctx context.Context, consent *Consent) error

	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Consent, error)

	// ListByPatientRef returns every grant for a patient reference, revoked
	// and expired included, ordered by GrantedAt descending then ID ascending.
	ListByPatientRef(ctx context.Context, patientRef string) ([]*Consent, error)

	// FindActiveByPatientRefAndScope returns the single most relevant grant
	// covering scope and valid at asOf, or sentinel.ErrNotFound. The choice
	// among multiple qualifying grants is deterministic: most recently
	// granted wins, ID ascending as the final tie-break.
	FindActiveByPatientRefAndScope(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error)

	// MarkRevoked records the revoke transition. Returns sentinel.ErrNotFound
	// when the record does not exist, sentinel.ErrInvalidState when it is
	// already revoked.
	MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt time.Time) error
}
