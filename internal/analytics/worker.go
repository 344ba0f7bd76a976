package analytics

import (
	"context"
	"log/slog"

	analyticsmetrics "schemeflow/internal/analytics/metrics"
)

// Worker consumes events from a channel and writes them to a sink. Sink failures are
// logged and counted, never retried: analytics is best effort.
type Worker struct {
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	metrics *analyticsmetrics.Metrics
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger, m *analyticsmetrics.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger, metrics: m}
}

// Run blocks until ctx is cancelled or the inbox is closed. On a closed inbox every
// buffered event is written before Run returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.write(ctx, event)
		}
	}
}

func (w *Worker) write(ctx context.Context, event Event) {
	if err := w.sink.Write(ctx, event); err != nil {
		w.metrics.IncSinkFailures()
		w.logger.WarnContext(ctx, "analytics sink write failed",
			"type", string(event.Type),
			"scheme_id", string(event.SchemeID),
			"error", err,
		)
	}
}
