package status

import (
	"context"
	"sync"
	"time"

	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// InMemory is the default status tracker. Records are kept for the life of the process.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.TrackingReference]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.TrackingReference]*Record)}
}

// Record starts tracking ref in the Submitted state.
func (t *InMemory) Record(_ context.Context, ref id.TrackingReference, schemeID id.SchemeID, submittedAt time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[ref]; ok {
		return sentinel.ErrAlreadyUsed
	}
	t.records[ref] = &Record{
		Reference:   ref,
		SchemeID:    schemeID,
		Status:      Submitted,
		SubmittedAt: submittedAt,
		UpdatedAt:   submittedAt,
	}
	return nil
}

func (t *InMemory) Lookup(_ context.Context, ref id.TrackingReference) (*Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// UpdateStatus moves ref to next, rejecting transitions out of a final state.
func (t *InMemory) UpdateStatus(ctx context.Context, ref id.TrackingReference, next ReviewStatus) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := rec.CanTransition(next); err != nil {
		return nil, err
	}
	rec.ApplyTransition(next, requestcontext.Now(ctx))
	out := *rec
	return &out, nil
}
