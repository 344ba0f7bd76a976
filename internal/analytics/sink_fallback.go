package analytics

import (
	"context"
	"log/slog"

	analyticsmetrics "schemeflow/internal/analytics/metrics"
	"schemeflow/pkg/platform/circuit"
)

const defaultRetryEvery = 50

// FallbackSink writes to primary until it fails repeatedly, then diverts events
// to fallback and retries the primary with every retryEvery-th event until it
// recovers. It is driven by a single worker.
type FallbackSink struct {
	primary    Sink
	fallback   Sink
	breaker    *circuit.Breaker
	retryEvery int
	skipped    int
	logger     *slog.Logger
	metrics    *analyticsmetrics.Metrics
}

type FallbackOption func(*FallbackSink)

func WithBreaker(b *circuit.Breaker) FallbackOption {
	return func(s *FallbackSink) {
		s.breaker = b
	}
}

func WithRetryEvery(n int) FallbackOption {
	return func(s *FallbackSink) {
		if n > 0 {
			s.retryEvery = n
		}
	}
}

func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(s *FallbackSink) {
		s.logger = logger
	}
}

func WithFallbackMetrics(m *analyticsmetrics.Metrics) FallbackOption {
	return func(s *FallbackSink) {
		s.metrics = m
	}
}

func NewFallbackSink(primary, fallback Sink, opts ...FallbackOption) *FallbackSink {
	s := &FallbackSink{
		primary:    primary,
		fallback:   fallback,
		breaker:    circuit.New("analytics"),
		retryEvery: defaultRetryEvery,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FallbackSink) Write(ctx context.Context, event Event) error {
	if s.breaker.IsOpen() {
		s.skipped++
		if s.skipped < s.retryEvery {
			return s.fallback.Write(ctx, event)
		}
		s.skipped = 0
	}

	if err := s.primary.Write(ctx, event); err != nil {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.metrics.SetFallbackActive(true)
			s.logger.WarnContext(ctx, "analytics primary sink unavailable, using fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		if useFallback {
			return s.fallback.Write(ctx, event)
		}
		return err
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.SetFallbackActive(false)
		s.logger.InfoContext(ctx, "analytics primary sink recovered", "breaker", s.breaker.Name())
	}
	return nil
}
