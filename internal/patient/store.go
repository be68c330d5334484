package patient

import "context"

// Store is the durable-store contract for the patient directory.
type Store interface {
	// Save inserts or replaces the record keyed by reference ID.
	Save(ctx context.Context, p *Patient) error

	// FindByReferenceID returns the record or sentinel.ErrNotFound.
	FindByReferenceID(ctx context.Context, referenceID string) (*Patient, error)

	// DeleteByReferenceID removes the record; sentinel.ErrNotFound when absent.
	DeleteByReferenceID(ctx context.Context, referenceID string) error
}
