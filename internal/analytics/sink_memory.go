package analytics

import (
	"context"
	"sync"

	id "schemeflow/pkg/domain"
)

type counterKey struct {
	eventType EventType
	schemeID  id.SchemeID
	outcome   string
}

// MemorySink aggregates events into counters per type, scheme and outcome.
type MemorySink struct {
	mu       sync.RWMutex
	counters map[counterKey]int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{counters: make(map[counterKey]int)}
}

func (s *MemorySink) Write(_ context.Context, event Event) error {
	n := event.Count
	if n <= 0 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counterKey{event.Type, event.SchemeID, event.Outcome}] += n
	return nil
}

// Count sums every outcome recorded for the event type and scheme.
func (s *MemorySink) Count(eventType EventType, schemeID id.SchemeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for k, n := range s.counters {
		if k.eventType == eventType && k.schemeID == schemeID {
			total += n
		}
	}
	return total
}

// CountOutcome returns the counter for one outcome label.
func (s *MemorySink) CountOutcome(eventType EventType, schemeID id.SchemeID, outcome string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[counterKey{eventType, schemeID, outcome}]
}
