package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSortsByTimestampOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Appended out of order; reads must still come back ascending.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		require.NoError(t, store.Append(ctx, NewRecord(EventPatientAccessed, "patient-1", "", base.Add(offset))))
	}

	records, err := store.FindByPatientRef(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Timestamp.Before(records[i-1].Timestamp))
	}
}

func TestInMemoryStoreRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, NewRecord(EventPatientAccessed, "patient-1", "", base.Add(time.Duration(i)*time.Hour))))
	}

	records, err := store.FindByTimestampRange(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
