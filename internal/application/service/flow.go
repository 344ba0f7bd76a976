package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"schemeflow/internal/analytics"
	"schemeflow/internal/application/models"
	"schemeflow/internal/application/status"
	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// StartResult is returned by StartApplication.
type StartResult struct {
	ApplicationID id.ApplicationID
	SchemeID      id.SchemeID
	FirstStep     schememodels.Step
	// CurrentStep is the step to answer next: the first step for a new
	// application, the resume point for a resumed one.
	CurrentStep schememodels.Step
	TotalSteps  int
	Resumed     bool
}

// ProgressResult is returned by SaveProgress and GetNextStep.
type ProgressResult struct {
	ApplicationID id.ApplicationID
	CurrentStep   int
	TotalSteps    int
	// NextStep is the first unanswered step, nil once every step is answered.
	NextStep     *schememodels.Step
	Completed    bool
	MissingSteps []int
}

type SubmitResult struct {
	ApplicationID     id.ApplicationID
	TrackingReference id.TrackingReference
	SubmittedAt       time.Time
}

// StatusResult is the citizen-facing review status of a submitted application.
type StatusResult struct {
	TrackingReference id.TrackingReference
	SchemeID          id.SchemeID
	Status            status.ReviewStatus
	StatusMessage     string
	NextSteps         []string
	SubmittedAt       time.Time
	UpdatedAt         time.Time
}

// StartApplication creates an application for schemeID bound to sessionID, or
// resumes the session's in-progress application for that scheme.
func (s *Service) StartApplication(ctx context.Context, schemeID id.SchemeID, sessionID id.SessionID) (*StartResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.StartApplication", trace.WithAttributes(
		attribute.String("scheme.id", string(schemeID)),
	))
	defer span.End()

	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "session ID is required")
	}
	scheme, err := s.scheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	lock := s.startLock(sessionID, schemeID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sessions.EnsureActive(ctx, sessionID); err != nil {
		return nil, err
	}

	if resumed, err := s.resume(ctx, scheme, sessionID); err != nil || resumed != nil {
		return resumed, err
	}

	now := requestcontext.Now(ctx)
	app, err := models.NewApplication(id.NewApplicationID(), schemeID, sessionID, scheme.TotalSteps(), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scheme has no application steps")
	}
	// Bind first so a failed bind never leaves an unreachable application behind.
	if err := s.sessions.BindApplication(ctx, sessionID, schemeID, app.ID); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, app); err != nil {
		if relErr := s.sessions.ReleaseApplication(ctx, sessionID, schemeID); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release binding after create failure",
				"request_id", requestcontext.RequestID(ctx),
				"application_id", app.ID,
				"error", relErr,
			)
		}
		return nil, wrapApplicationErr(err)
	}

	s.metrics.IncrementTransition("started", string(schemeID))
	s.analytics.Publish(ctx, analytics.Event{Type: analytics.EventApplicationStarted, SchemeID: schemeID})
	s.logEvent(ctx, "application started",
		"application_id", app.ID,
		"scheme_id", schemeID,
		"total_steps", app.TotalSteps,
	)

	first, _ := scheme.Step(1)
	return &StartResult{
		ApplicationID: app.ID,
		SchemeID:      schemeID,
		FirstStep:     first,
		CurrentStep:   first,
		TotalSteps:    app.TotalSteps,
	}, nil
}

// resume returns the session's in-progress application for the scheme, or nil
// when there is none. A binding to a missing or submitted application is stale
// and gets released.
func (s *Service) resume(ctx context.Context, scheme *schememodels.Scheme, sessionID id.SessionID) (*StartResult, error) {
	appID, ok, err := s.sessions.ActiveApplication(ctx, sessionID, scheme.ID)
	if err != nil || !ok {
		return nil, err
	}
	app, err := s.store.FindByID(ctx, appID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.sessions.ReleaseApplication(ctx, sessionID, scheme.ID)
	}
	if err != nil {
		return nil, wrapApplicationErr(err)
	}
	if app.IsSubmitted() {
		return nil, s.sessions.ReleaseApplication(ctx, sessionID, scheme.ID)
	}

	resumeAt := app.CurrentStep
	if next, ok := app.NextStep(); ok {
		resumeAt = next
	}
	first, _ := scheme.Step(1)
	current, _ := scheme.Step(resumeAt)

	s.metrics.IncrementTransition("resumed", string(scheme.ID))
	s.logEvent(ctx, "application resumed",
		"application_id", app.ID,
		"scheme_id", scheme.ID,
		"current_step", app.CurrentStep,
	)
	return &StartResult{
		ApplicationID: app.ID,
		SchemeID:      scheme.ID,
		FirstStep:     first,
		CurrentStep:   current,
		TotalSteps:    app.TotalSteps,
		Resumed:       true,
	}, nil
}

// SaveProgress validates and records the answer to one step. Steps must be
// answered in order; earlier steps may be revised. Completing the last step
// does not submit.
func (s *Service) SaveProgress(ctx context.Context, appID id.ApplicationID, stepNumber int, value schememodels.Value) (*ProgressResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.SaveProgress", trace.WithAttributes(
		attribute.String("application.id", appID.String()),
		attribute.Int("application.step", stepNumber),
	))
	defer span.End()

	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	// Fail fast on ordering before the answer itself is judged; Execute re-checks under the lock.
	if err := app.CanSaveStep(stepNumber); err != nil {
		return nil, err
	}
	if err := s.sessions.EnsureActive(ctx, app.SessionID); err != nil {
		return nil, err
	}

	scheme, err := s.scheme(ctx, app.SchemeID)
	if err != nil {
		return nil, err
	}
	step, ok := scheme.Step(stepNumber)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "scheme steps no longer match the application").
			WithDetail("step", stepNumber)
	}
	answer, err := models.NormalizeAnswer(step, value)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, appID,
		func(a *models.Application) error {
			return a.CanSaveStep(stepNumber)
		},
		func(a *models.Application) {
			a.ApplyStep(stepNumber, answer, now)
		},
	)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}

	s.metrics.IncrementTransition("step_saved", string(app.SchemeID))
	s.logEvent(ctx, "application step saved",
		"application_id", appID,
		"scheme_id", app.SchemeID,
		"step", stepNumber,
		"current_step", updated.CurrentStep,
	)
	return progress(updated, scheme), nil
}

// SubmitApplication freezes a fully answered application under a fresh
// tracking reference.
func (s *Service) SubmitApplication(ctx context.Context, appID id.ApplicationID) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.SubmitApplication", trace.WithAttributes(
		attribute.String("application.id", appID.String()),
	))
	defer span.End()
	start := time.Now()

	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	// Checked before generating so incomplete submissions never burn a reference.
	if err := app.CanSubmit(); err != nil {
		return nil, err
	}
	if err := s.sessions.EnsureActive(ctx, app.SessionID); err != nil {
		return nil, err
	}

	ref, err := s.references.Generate(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	submitted, err := s.store.Execute(ctx, appID,
		func(a *models.Application) error {
			return a.CanSubmit()
		},
		func(a *models.Application) {
			a.ApplySubmission(ref, now)
		},
	)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}

	if err := s.tracker.Record(ctx, ref, submitted.SchemeID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to record submission status",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"error", err,
		)
	}
	if err := s.sessions.ReleaseApplication(ctx, submitted.SessionID, submitted.SchemeID); err != nil {
		s.logger.WarnContext(ctx, "failed to release application from session",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"error", err,
		)
	}

	span.SetAttributes(attribute.String("scheme.id", string(submitted.SchemeID)))
	s.metrics.IncrementTransition("submitted", string(submitted.SchemeID))
	s.metrics.ObserveSubmitLatency(time.Since(start))
	s.analytics.Publish(ctx, analytics.Event{Type: analytics.EventApplicationSubmitted, SchemeID: submitted.SchemeID})
	s.logEvent(ctx, "application submitted",
		"application_id", appID,
		"scheme_id", submitted.SchemeID,
		"tracking_reference", ref,
	)
	return &SubmitResult{
		ApplicationID:     appID,
		TrackingReference: ref,
		SubmittedAt:       now,
	}, nil
}

// GetApplication returns a consistent snapshot of the application.
func (s *Service) GetApplication(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	return s.load(ctx, appID)
}

// GetNextStep returns the resume point: the first unanswered step, if any.
func (s *Service) GetNextStep(ctx context.Context, appID id.ApplicationID) (*ProgressResult, error) {
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	scheme, err := s.scheme(ctx, app.SchemeID)
	if err != nil {
		return nil, err
	}
	return progress(app, scheme), nil
}

// GetApplicationStatus reports review status by tracking reference. An
// application whose status was never recorded reads as submitted.
func (s *Service) GetApplicationStatus(ctx context.Context, ref id.TrackingReference) (*StatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.GetApplicationStatus")
	defer span.End()

	rec, err := s.tracker.Lookup(ctx, ref)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		rec, err = s.recordFromStore(ctx, ref)
		if err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application status")
	}

	return toStatusResult(rec), nil
}

// UpdateApplicationStatus records a review decision for ref. A submission the
// tracker missed is seeded from the store before the transition is applied.
func (s *Service) UpdateApplicationStatus(ctx context.Context, ref id.TrackingReference, next status.ReviewStatus) (*StatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.UpdateApplicationStatus", trace.WithAttributes(
		attribute.String("review.status", string(next)),
	))
	defer span.End()

	rec, err := s.tracker.UpdateStatus(ctx, ref, next)
	if errors.Is(err, sentinel.ErrNotFound) {
		seed, seedErr := s.recordFromStore(ctx, ref)
		if seedErr != nil {
			return nil, seedErr
		}
		if err := s.tracker.Record(ctx, ref, seed.SchemeID, seed.SubmittedAt); err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record application status")
		}
		rec, err = s.tracker.UpdateStatus(ctx, ref, next)
	}
	if err != nil {
		if dErrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application status")
	}

	s.logEvent(ctx, "application status updated",
		"tracking_reference", ref,
		"scheme_id", rec.SchemeID,
		"status", rec.Status,
	)
	return toStatusResult(rec), nil
}

func toStatusResult(rec *status.Record) *StatusResult {
	return &StatusResult{
		TrackingReference: rec.Reference,
		SchemeID:          rec.SchemeID,
		Status:            rec.Status,
		StatusMessage:     status.StatusMessage(rec.Status),
		NextSteps:         status.NextSteps(rec.Status),
		SubmittedAt:       rec.SubmittedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func (s *Service) recordFromStore(ctx context.Context, ref id.TrackingReference) (*status.Record, error) {
	app, err := s.store.FindByTrackingReference(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tracking reference not found").
				WithDetail("trackingReference", string(ref))
		}
		return nil, wrapApplicationErr(err)
	}
	if app.SubmittedAt == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "application has a reference but no submission time")
	}
	return &status.Record{
		Reference:   ref,
		SchemeID:    app.SchemeID,
		Status:      status.Submitted,
		SubmittedAt: *app.SubmittedAt,
		UpdatedAt:   app.UpdatedAt,
	}, nil
}

func progress(app *models.Application, scheme *schememodels.Scheme) *ProgressResult {
	out := &ProgressResult{
		ApplicationID: app.ID,
		CurrentStep:   app.CurrentStep,
		TotalSteps:    app.TotalSteps,
		MissingSteps:  app.MissingSteps(),
	}
	if n, ok := app.NextStep(); ok {
		if step, ok := scheme.Step(n); ok {
			out.NextStep = &step
		}
	} else {
		out.Completed = true
	}
	return out
}
