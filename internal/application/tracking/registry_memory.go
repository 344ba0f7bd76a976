package tracking

import (
	"context"
	"sync"

	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

// InMemoryRegistry is a process-local Registry.
type InMemoryRegistry struct {
	mu       sync.Mutex
	reserved map[id.TrackingReference]struct{}
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{reserved: make(map[id.TrackingReference]struct{})}
}

func (r *InMemoryRegistry) Reserve(_ context.Context, ref id.TrackingReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.reserved[ref]; taken {
		return sentinel.ErrAlreadyUsed
	}
	r.reserved[ref] = struct{}{}
	return nil
}

// Len returns the number of reservations.
func (r *InMemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reserved)
}
