package events

import (
	"context"
	"sync"
)

// InMemoryStore keeps the event log in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, evs []Event) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]Event, len(evs))
	for i, ev := range evs {
		ev.Seq = uint64(len(s.events)) + 1
		s.events = append(s.events, ev)
		stored[i] = ev
	}
	return stored, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, ev := range s.events {
		if !filter.matches(ev) {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Clear drops every stored event.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
