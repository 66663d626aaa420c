package audit

import (
	"context"
	"sort"
	"sync"

	"miecredit/pkg/platform/sentinel"
)

// InMemoryStore keeps audit events in memory. Used by unit tests and local
// development; semantics (id assignment, ordering, clamping) match the
// Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []StoredEvent
	nextID int64
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) (StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := StoredEvent{ID: s.nextID, Event: event}
	s.nextID++
	s.events = append(s.events, stored)
	return stored, nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return StoredEvent{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Query(_ context.Context, filter Filter) ([]StoredEvent, error) {
	s.mu.RLock()
	matched := s.match(filter)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].TS != matched[j].TS {
			return matched[i].TS > matched[j].TS
		}
		return matched[i].ID > matched[j].ID
	})

	offset := filter.ClampedOffset()
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]

	if limit := filter.ClampedLimit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *InMemoryStore) Count(_ context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(filter))), nil
}

func (s *InMemoryStore) match(filter Filter) []StoredEvent {
	var matched []StoredEvent
	for _, e := range s.events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched
}
