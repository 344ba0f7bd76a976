package analytics

import (
	"context"
	"sync"
	"sync/atomic"

	analyticsmetrics "schemeflow/internal/analytics/metrics"
	"schemeflow/pkg/requestcontext"
)

const defaultBufferSize = 1024

// Publisher is a bounded, non-blocking Emitter. When the buffer is full the event is
// dropped and counted; callers are never slowed down by analytics.
type Publisher struct {
	events  chan Event
	metrics *analyticsmetrics.Metrics

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

type PublisherOption func(*Publisher)

func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
		}
	}
}

func WithMetrics(m *analyticsmetrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{events: make(chan Event, defaultBufferSize)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish enqueues event without blocking. A zero Timestamp is stamped from the request clock.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop()
		return
	}
	select {
	case p.events <- event:
		p.metrics.IncPublished(string(event.Type))
	default:
		p.drop()
	}
}

func (p *Publisher) drop() {
	p.dropped.Add(1)
	p.metrics.IncDropped()
}

// Events is the consumer side, drained by a Worker.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

// Dropped returns how many events were discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting events and closes the channel so the worker can drain it.
// Safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.events)
}
