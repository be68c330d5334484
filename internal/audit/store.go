package audit

import (
	"context"
	"time"
)

// Store is the durable-store contract for the ledger. Append is the only
// write; no update or delete method exists, in any implementation. All read
// paths return records ordered by timestamp ascending.
type Store interface {
	Append(ctx context.Context, record Record) error
	FindByPatientRef(ctx context.Context, patientRef string) ([]Record, error)
	FindByEventType(ctx context.Context, eventType EventType) ([]Record, error)
	FindByTimestampRange(ctx context.Context, start, end time.Time) ([]Record, error)
	FindByPatientRefAndEventType(ctx context.Context, patientRef string, eventType EventType) ([]Record, error)
}
