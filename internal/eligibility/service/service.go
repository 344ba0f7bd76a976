// Package service wires the pure eligibility engine to the catalog, analytics and metrics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"schemeflow/internal/analytics"
	"schemeflow/internal/eligibility"
	eligibilitymetrics "schemeflow/internal/eligibility/metrics"
	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

const outcomeInvalidInputs = "invalid_inputs"

// Catalog resolves schemes. It returns sentinel.ErrNotFound for unknown or inactive schemes.
type Catalog interface {
	GetScheme(ctx context.Context, schemeID id.SchemeID) (*models.Scheme, error)
}

type Service struct {
	catalog   Catalog
	analytics analytics.Emitter
	metrics   *eligibilitymetrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *eligibilitymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
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
		tracer:    otel.Tracer("schemeflow/eligibility"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckEligibility evaluates inputs against a scheme. Ineligibility is a successful
// result; only unknown schemes and missing inputs are errors.
func (s *Service) CheckEligibility(ctx context.Context, schemeID id.SchemeID, inputs models.Inputs) (*eligibility.Result, error) {
	ctx, span := s.tracer.Start(ctx, "eligibility.CheckEligibility", trace.WithAttributes(
		attribute.String("scheme.id", string(schemeID)),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveEvaluateLatency(time.Since(start)) }()

	scheme, err := s.scheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	result, err := eligibility.CheckEligibility(scheme, inputs)
	if err != nil {
		s.metrics.IncrementOutcome(string(schemeID), outcomeInvalidInputs)
		s.logger.InfoContext(ctx, "eligibility inputs incomplete",
			"request_id", requestcontext.RequestID(ctx),
			"scheme_id", schemeID,
			"missing_fields", dErrors.DetailsOf(err)["missingFields"],
		)
		return nil, err
	}

	outcome := analytics.OutcomeIneligible
	if result.Eligible {
		outcome = analytics.OutcomeEligible
	}
	span.SetAttributes(attribute.Bool("eligibility.eligible", result.Eligible))
	s.metrics.IncrementOutcome(string(schemeID), outcome)
	for _, field := range result.MismatchedFields {
		s.metrics.IncrementMismatch(string(schemeID), field)
	}
	s.analytics.Publish(ctx, analytics.Event{
		Type:     analytics.EventEligibilityChecked,
		SchemeID: schemeID,
		Outcome:  outcome,
	})
	s.logger.InfoContext(ctx, "eligibility checked",
		"request_id", requestcontext.RequestID(ctx),
		"scheme_id", schemeID,
		"eligible", result.Eligible,
		"unmet", len(result.UnmetCriteria),
	)
	return result, nil
}

// SelectDocuments returns the document checklist for a scheme tailored to inputs.
func (s *Service) SelectDocuments(ctx context.Context, schemeID id.SchemeID, inputs models.Inputs) ([]models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "eligibility.SelectDocuments", trace.WithAttributes(
		attribute.String("scheme.id", string(schemeID)),
	))
	defer span.End()

	scheme, err := s.scheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	docs := eligibility.SelectDocuments(scheme, inputs)
	s.analytics.Publish(ctx, analytics.Event{
		Type:     analytics.EventDocumentsListed,
		SchemeID: schemeID,
		Count:    len(docs),
	})
	return docs, nil
}

func (s *Service) scheme(ctx context.Context, schemeID id.SchemeID) (*models.Scheme, error) {
	scheme, err := s.catalog.GetScheme(ctx, schemeID)
	if err == nil {
		return scheme, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeSchemeNotFound, "scheme not found").
			WithDetail("schemeId", string(schemeID))
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scheme")
}
