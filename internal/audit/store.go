package audit

import "context"

// Store is the durable, queryable persistence layer for sanitized audit
// events. Implementations must assign strictly increasing ids under
// concurrent appends and order query results by timestamp descending with
// id descending as tie-break.
type Store interface {
	// Append durably persists the event and returns it with its assigned id.
	Append(ctx context.Context, event Event) (StoredEvent, error)
	// Get returns the event with the given id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id int64) (StoredEvent, error)
	// Query returns matching events honoring the filter's clamped
	// pagination.
	Query(ctx context.Context, filter Filter) ([]StoredEvent, error)
	// Count returns the total number of matching events, ignoring
	// pagination.
	Count(ctx context.Context, filter Filter) (int64, error)
}
