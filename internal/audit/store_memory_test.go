package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miecredit/pkg/platform/sentinel"
)

func appendEvent(t *testing.T, store Store, ts float64, eventType, requestID string) StoredEvent {
	t.Helper()
	stored, err := store.Append(context.Background(), Event{
		TS:        ts,
		RequestID: requestID,
		EventType: eventType,
		Payload:   map[string]any{},
	})
	require.NoError(t, err)
	return stored
}

func TestMemoryStoreAssignsIncreasingIDs(t *testing.T) {
	store := NewInMemoryStore()

	first := appendEvent(t, store, 1, EventTypeScore, "r1")
	second := appendEvent(t, store, 2, EventTypeScore, "r2")

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryStoreQueryOrdering(t *testing.T) {
	store := NewInMemoryStore()
	appendEvent(t, store, 10, EventTypeScore, "r1")
	appendEvent(t, store, 20, EventTypeScore, "r2")
	appendEvent(t, store, 20, EventTypeScore, "r3")
	appendEvent(t, store, 5, EventTypeScore, "r4")

	events, err := store.Query(context.Background(), Filter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 4)

	// Newest first; equal timestamps break ties by id, later insert first.
	assert.Equal(t, "r3", events[0].RequestID)
	assert.Equal(t, "r2", events[1].RequestID)
	assert.Equal(t, "r1", events[2].RequestID)
	assert.Equal(t, "r4", events[3].RequestID)
}

func TestMemoryStorePaginationCoversAllRows(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 25; i++ {
		appendEvent(t, store, float64(i), EventTypeScore, "r")
	}

	seen := map[int64]bool{}
	for offset := 0; offset < 25; offset += 10 {
		page, err := store.Query(context.Background(), Filter{Limit: 10, Offset: offset})
		require.NoError(t, err)
		for _, e := range page {
			assert.False(t, seen[e.ID], "event %d returned twice", e.ID)
			seen[e.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestMemoryStoreTimestampBoundsInclusive(t *testing.T) {
	store := NewInMemoryStore()
	appendEvent(t, store, 10, EventTypeScore, "r1")
	appendEvent(t, store, 20, EventTypeScore, "r2")
	appendEvent(t, store, 30, EventTypeScore, "r3")

	since, until := 10.0, 20.0
	events, err := store.Query(context.Background(), Filter{Limit: 10, SinceTS: &since, UntilTS: &until})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "r2", events[0].RequestID)
	assert.Equal(t, "r1", events[1].RequestID)
}

func TestMemoryStoreFilterConjunction(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	v1 := "v1"
	subject := "hashed-subject"
	_, err := store.Append(ctx, Event{TS: 1, RequestID: "r1", EventType: EventTypeScore, ModelVersion: &v1, SubjectID: &subject})
	require.NoError(t, err)
	_, err = store.Append(ctx, Event{TS: 2, RequestID: "r2", EventType: EventTypeExplain, ModelVersion: &v1})
	require.NoError(t, err)
	_, err = store.Append(ctx, Event{TS: 3, RequestID: "r3", EventType: EventTypeScore})
	require.NoError(t, err)

	events, err := store.Query(ctx, Filter{Limit: 10, EventType: EventTypeScore, ModelVersion: "v1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "r1", events[0].RequestID)

	// Field filters never match rows where the column is NULL.
	events, err = store.Query(ctx, Filter{Limit: 10, SubjectID: "hashed-subject"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "r1", events[0].RequestID)
}

func TestMemoryStoreLimitClamping(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		appendEvent(t, store, float64(i), EventTypeScore, "r")
	}

	// Zero and negative limits clamp to one row, not zero.
	events, err := store.Query(context.Background(), Filter{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = store.Query(context.Background(), Filter{Limit: -7, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryStoreCountIgnoresPagination(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 7; i++ {
		appendEvent(t, store, float64(i), EventTypeScore, "r")
	}

	count, err := store.Count(context.Background(), Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestMemoryStoreGet(t *testing.T) {
	store := NewInMemoryStore()
	stored := appendEvent(t, store, 1, EventTypeScore, "r1")

	got, err := store.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.RequestID, got.RequestID)

	_, err = store.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreOffsetPastEnd(t *testing.T) {
	store := NewInMemoryStore()
	appendEvent(t, store, 1, EventTypeScore, "r1")

	events, err := store.Query(context.Background(), Filter{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, events)
}
