// Package service exposes the scheme catalog for discovery.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"schemeflow/internal/analytics"
	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// Catalog is the scheme source. GetScheme returns sentinel.ErrNotFound for unknown
// or inactive schemes.
type Catalog interface {
	GetScheme(ctx context.Context, schemeID id.SchemeID) (*models.Scheme, error)
	ListSchemes(ctx context.Context, category string) ([]*models.Scheme, error)
}

type Service struct {
	catalog   Catalog
	analytics analytics.Emitter
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAnalytics(emitter analytics.Emitter) Option {
	return func(s *Service) {
		s.analytics = emitter
	}
}

func New(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		analytics: analytics.Discard,
		logger:    slog.Default(),
		tracer:    otel.Tracer("schemeflow/scheme"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetScheme returns an active scheme and records a scheme_viewed event.
func (s *Service) GetScheme(ctx context.Context, schemeID id.SchemeID) (*models.Scheme, error) {
	ctx, span := s.tracer.Start(ctx, "scheme.GetScheme", trace.WithAttributes(
		attribute.String("scheme.id", string(schemeID)),
	))
	defer span.End()

	scheme, err := s.catalog.GetScheme(ctx, schemeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeSchemeNotFound, "scheme not found").
				WithDetail("schemeId", string(schemeID))
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scheme")
	}

	s.analytics.Publish(ctx, analytics.Event{Type: analytics.EventSchemeViewed, SchemeID: scheme.ID})
	return scheme, nil
}

// ListSchemes returns active schemes, optionally filtered by category.
func (s *Service) ListSchemes(ctx context.Context, category string) ([]*models.Scheme, error) {
	ctx, span := s.tracer.Start(ctx, "scheme.ListSchemes")
	defer span.End()

	schemes, err := s.catalog.ListSchemes(ctx, category)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to list schemes",
			"request_id", requestcontext.RequestID(ctx),
			"category", category,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schemes")
	}
	return schemes, nil
}
