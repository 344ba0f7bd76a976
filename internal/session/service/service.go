// Package service manages conversation sessions: the 24 hour window, the
// append-only history, language switching and the binding between a session
// and its in-progress applications.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	schememodels "schemeflow/internal/scheme/models"
	sessionmetrics "schemeflow/internal/session/metrics"
	"schemeflow/internal/session/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// Store persists sessions. FindByID returns expired sessions that have not been
// archived yet; the service decides expiry from the timestamp. FindArchived
// reads sessions the sweeper has already moved out of the live set.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	FindArchived(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
	ArchiveExpired(ctx context.Context, now time.Time) (int, error)
}

type Service struct {
	store   Store
	ttl     time.Duration
	metrics *sessionmetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *sessionmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTTL overrides the session window. Production keeps the 24h default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

const DefaultTTL = 24 * time.Hour

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
		tracer: otel.Tracer("schemeflow/session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens a session in the closest supported language.
func (s *Service) CreateSession(ctx context.Context, language string) (*models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.CreateSession")
	defer span.End()

	now := requestcontext.Now(ctx)
	session, err := models.NewSession(id.NewSessionID(), schememodels.MatchLanguage(language), now, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, wrapSessionErr(err)
	}
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "session created",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"language", session.Language,
		"expires_at", session.ExpiresAt,
	)
	return session, nil
}

// GetSession returns the session, or session_expired once its window has closed.
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.missingSessionErr(ctx, sessionID, err)
	}
	if err := s.checkActive(session, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	return session, nil
}

// EnsureActive fails unless the session exists and is inside its window.
func (s *Service) EnsureActive(ctx context.Context, sessionID id.SessionID) error {
	_, err := s.GetSession(ctx, sessionID)
	return err
}

func (s *Service) AppendMessage(ctx context.Context, sessionID id.SessionID, role models.Role, content string) (*models.Session, error) {
	if err := models.CanAppendMessage(role, content); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	return s.execute(ctx, sessionID, now,
		func(*models.Session) error { return nil },
		func(m *models.Session) { m.ApplyMessage(role, content, now) },
	)
}

// UpdateContext merges patch into the session context; empty values delete keys.
func (s *Service) UpdateContext(ctx context.Context, sessionID id.SessionID, patch map[string]string) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, sessionID, now,
		func(m *models.Session) error { return m.CanUpdateContext(patch) },
		func(m *models.Session) { m.ApplyContext(patch, now) },
	)
}

// SetLanguage switches the presentation language. History, context and bound
// applications are untouched.
func (s *Service) SetLanguage(ctx context.Context, sessionID id.SessionID, language string) (*models.Session, error) {
	if !schememodels.SupportedLanguage(language) {
		return nil, dErrors.New(dErrors.CodeValidation, "unsupported language").WithDetail("language", language)
	}
	lang := schememodels.MatchLanguage(language)
	now := requestcontext.Now(ctx)
	session, err := s.execute(ctx, sessionID, now,
		func(*models.Session) error { return nil },
		func(m *models.Session) { m.ApplyLanguage(lang, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementLanguageSwitch(lang)
	return session, nil
}

// ActiveApplication returns the application the session has in progress for schemeID.
func (s *Service) ActiveApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID) (id.ApplicationID, bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return id.ApplicationID{}, false, err
	}
	appID, ok := session.ActiveApplication(schemeID)
	return appID, ok, nil
}

// BindApplication records appID as the session's in-progress application for schemeID.
func (s *Service) BindApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID, appID id.ApplicationID) error {
	now := requestcontext.Now(ctx)
	_, err := s.execute(ctx, sessionID, now,
		func(m *models.Session) error { return m.CanBind(schemeID, appID) },
		func(m *models.Session) { m.ApplyBind(schemeID, appID, now) },
	)
	return err
}

// ReleaseApplication clears the binding after submission. It works on expired
// sessions too so bookkeeping never blocks a submission.
func (s *Service) ReleaseApplication(ctx context.Context, sessionID id.SessionID, schemeID id.SchemeID) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Execute(ctx, sessionID,
		func(*models.Session) error { return nil },
		func(m *models.Session) { m.ApplyRelease(schemeID, now) },
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return wrapSessionErr(err)
}

// Sweep archives sessions whose window has closed. It is safe to run
// concurrently with lookups and with itself.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "session.Sweep")
	defer span.End()

	n, err := s.store.ArchiveExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncrementSweepFailure()
		return n, wrapSessionErr(err)
	}
	s.metrics.AddArchived(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions archived", "count", n)
	}
	return n, nil
}

func (s *Service) execute(ctx context.Context, sessionID id.SessionID, now time.Time, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	session, err := s.store.Execute(ctx, sessionID,
		func(m *models.Session) error {
			if err := s.checkActive(m, now); err != nil {
				return err
			}
			return validate(m)
		},
		mutate,
	)
	if err != nil {
		return nil, s.missingSessionErr(ctx, sessionID, err)
	}
	return session, nil
}

// missingSessionErr reports an archived session as expired so callers see the
// same code before and after the sweeper has run.
func (s *Service) missingSessionErr(ctx context.Context, sessionID id.SessionID, err error) error {
	if !errors.Is(err, sentinel.ErrNotFound) {
		return wrapSessionErr(err)
	}
	archived, archErr := s.store.FindArchived(ctx, sessionID)
	if archErr != nil {
		if !errors.Is(archErr, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "archive lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"session_id", sessionID,
				"error", archErr,
			)
		}
		return wrapSessionErr(err)
	}
	s.metrics.IncrementExpiredLookup()
	return dErrors.New(dErrors.CodeSessionExpired, "session has expired").
		WithDetail("expiredAt", archived.ExpiresAt)
}

func (s *Service) checkActive(session *models.Session, now time.Time) error {
	if session.IsExpired(now) {
		s.metrics.IncrementExpiredLookup()
		return dErrors.New(dErrors.CodeSessionExpired, "session has expired").
			WithDetail("expiredAt", session.ExpiresAt)
	}
	return nil
}

func wrapSessionErr(err error) error {
	if err == nil {
		return nil
	}
	if dErrors.CodeOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "session was modified concurrently, retry")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "session already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "session operation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
}
