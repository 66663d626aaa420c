// Package audit records every decision the platform makes. Records pass
// through the redaction pipeline before they touch storage, the primary
// store is the single source of truth for compliance queries, and optional
// secondary sinks receive a sanitized copy of each record.
//
// Durability and redaction are the only integrity guarantees: there is no
// hash chaining or signing of the trail.
package audit

import "time"

// TimestampOf converts a wall-clock time to the unix-seconds timestamp
// format stored on events.
func TimestampOf(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Event types recorded by the platform. The tag set is open: unknown types
// are stored as-is and only filtered on exact match.
const (
	EventTypeScore    = "score"
	EventTypeExplain  = "explain"
	EventTypeFairness = "fairness_report"
)

// Event is a single audit record as emitted by domain logic, before
// persistence. TS, RequestID, and EventType are immutable once constructed;
// only SubjectID and Payload are transformed by redaction.
type Event struct {
	// TS is the wall-clock event time in unix seconds.
	TS float64 `json:"ts"`
	// RequestID correlates the event with the request that produced it.
	// Unique per served request, not guaranteed unique across restarts.
	RequestID string `json:"request_id"`
	EventType string `json:"event_type"`
	// ModelVersion identifies the model that produced the outcome, when one
	// was involved.
	ModelVersion *string `json:"model_version"`
	// SubjectID identifies the entity being evaluated. Subject to redaction.
	SubjectID *string `json:"subject_id"`
	// Payload carries event-type-specific detail as JSON-like values.
	Payload map[string]any `json:"payload"`
}

// StoredEvent is an Event persisted in the primary store, with a strictly
// increasing integer primary key assigned at insertion time.
type StoredEvent struct {
	ID int64 `json:"id"`
	Event
}

// Filter selects audit events. All set fields are AND-ed together;
// timestamp bounds are inclusive on both ends.
type Filter struct {
	SinceTS      *float64
	UntilTS      *float64
	RequestID    string
	EventType    string
	SubjectID    string
	ModelVersion string

	Limit  int
	Offset int
}

// Pagination clamps for Filter. Queries never return more than MaxQueryLimit
// rows per page regardless of what the caller asks for.
const (
	MaxQueryLimit = 1000
	minQueryLimit = 1
)

// ClampedLimit returns the limit forced into [1, MaxQueryLimit].
func (f Filter) ClampedLimit() int {
	if f.Limit < minQueryLimit {
		return minQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return f.Limit
}

// ClampedOffset returns the offset forced to be non-negative.
func (f Filter) ClampedOffset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

// Matches reports whether the stored event satisfies every set filter
// field. Shared by the in-memory store; the Postgres store expresses the
// same conjunction in SQL.
func (f Filter) Matches(e StoredEvent) bool {
	if f.SinceTS != nil && e.TS < *f.SinceTS {
		return false
	}
	if f.UntilTS != nil && e.TS > *f.UntilTS {
		return false
	}
	if f.RequestID != "" && e.RequestID != f.RequestID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.SubjectID != "" && (e.SubjectID == nil || *e.SubjectID != f.SubjectID) {
		return false
	}
	if f.ModelVersion != "" && (e.ModelVersion == nil || *e.ModelVersion != f.ModelVersion) {
		return false
	}
	return true
}
