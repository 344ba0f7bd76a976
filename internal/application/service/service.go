// Package service runs the multi-step application flow: start or resume, save
// answers step by step, submit under a tracking reference and report review status.
package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"schemeflow/internal/analytics"
	appmetrics "schemeflow/internal/application/metrics"
	"schemeflow/internal/application/models"
	"schemeflow/internal/application/status"
	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// Store persists applications. Execute holds a per-application lock (mutex or
// FOR UPDATE) across validate and mutate.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindByTrackingReference(ctx context.Context, ref id.TrackingReference) (*models.Application, error)
	Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error)
}

// Catalog resolves schemes. It returns sentinel.ErrNotFound for unknown or inactive schemes.
type Catalog interface {
	GetScheme(ctx context.Context, schemeID id.SchemeID) (*schememodels.Scheme, error)
}

// Sessions is the session side of the binding. Its errors are already coded
// (session_expired, not_found) and are passed through unchanged.
type Sessions interface {
	EnsureActive(ctx context.Context, sessionID id.SessionID) error
	ActiveApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID) (id.ApplicationID, bool, error)
	BindApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID, appID id.ApplicationID) error
	ReleaseApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID) error
}

// ReferenceGenerator returns a tracking reference that has already been reserved.
type ReferenceGenerator interface {
	Generate(ctx context.Context) (id.TrackingReference, error)
}

// StatusTracker is the post-submission status collaborator.
type StatusTracker interface {
	Record(ctx context.Context, ref id.TrackingReference, schemeID id.SchemeID, submittedAt time.Time) error
	Lookup(ctx context.Context, ref id.TrackingReference) (*status.Record, error)
	UpdateStatus(ctx context.Context, ref id.TrackingReference, next status.ReviewStatus) (*status.Record, error)
}

const numStartLocks = 64

type Service struct {
	store      Store
	catalog    Catalog
	sessions   Sessions
	references ReferenceGenerator
	tracker    StatusTracker
	analytics  analytics.Emitter
	metrics    *appmetrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	// startLocks serialize StartApplication per session and scheme so a double
	// click cannot create two in-progress applications.
	startLocks [numStartLocks]sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *appmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAnalytics(emitter analytics.Emitter) Option {
	return func(s *Service) {
		s.analytics = emitter
	}
}

func New(store Store, catalog Catalog, sessions Sessions, references ReferenceGenerator, tracker StatusTracker, opts ...Option) *Service {
	s := &Service{
		store:      store,
		catalog:    catalog,
		sessions:   sessions,
		references: references,
		tracker:    tracker,
		analytics:  analytics.Discard,
		logger:     slog.Default(),
		tracer:     otel.Tracer("schemeflow/application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startLock(sessionID id.SessionID, schemeID id.SchemeID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID.String()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(schemeID))
	return &s.startLocks[h.Sum32()%numStartLocks]
}

func (s *Service) scheme(ctx context.Context, schemeID id.SchemeID) (*schememodels.Scheme, error) {
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

// load fetches an application the caller may edit. A request scoped to a
// different session sees the application as missing.
func (s *Service) load(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}
	if caller := requestcontext.SessionID(ctx); !caller.IsNil() && caller != app.SessionID {
		return nil, applicationNotFound(appID)
	}
	return app, nil
}

func (s *Service) logEvent(ctx context.Context, msg string, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, msg, args...)
}

func applicationNotFound(appID id.ApplicationID) error {
	return dErrors.New(dErrors.CodeNotFound, "application not found").
		WithDetail("applicationId", appID.String())
}

// wrapApplicationErr translates store facts into coded errors. Errors that are
// already coded pass through.
func wrapApplicationErr(err error) error {
	if err == nil {
		return nil
	}
	if dErrors.CodeOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "application already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "application operation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}
