package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs Sweep on a fixed interval until its context is cancelled.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is done. Sweep errors are logged and the next tick retries.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "session sweeper started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "session sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := w.service.Sweep(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		}
	}
}
