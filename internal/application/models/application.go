package models

import (
	"fmt"
	"maps"
	"slices"
	"time"

	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

func (s Status) IsValid() bool {
	return s == StatusInProgress || s == StatusSubmitted
}

// Application is the aggregate root for one citizen's multi-step application.
//
// Invariants:
//   - 1 <= CurrentStep <= TotalSteps, and CurrentStep never decreases
//   - every key of Responses is within 1..TotalSteps
//   - Status moves in_progress -> submitted only, never back
//   - TrackingReference and SubmittedAt are set exactly when Status is submitted
//   - once submitted, nothing about the application changes
type Application struct {
	ID                id.ApplicationID           `json:"applicationId"`
	SchemeID          id.SchemeID                `json:"schemeId"`
	SessionID         id.SessionID               `json:"sessionId"`
	CurrentStep       int                        `json:"currentStep"`
	TotalSteps        int                        `json:"totalSteps"`
	Responses         map[int]schememodels.Value `json:"responses"`
	Status            Status                     `json:"status"`
	TrackingReference id.TrackingReference       `json:"trackingReference,omitempty"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
	SubmittedAt       *time.Time                 `json:"submittedAt,omitempty"`
}

// NewApplication starts an application at step 1.
func NewApplication(appID id.ApplicationID, schemeID id.SchemeID, sessionID id.SessionID, totalSteps int, now time.Time) (*Application, error) {
	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application ID is required")
	}
	if schemeID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scheme ID is required")
	}
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session ID is required")
	}
	if totalSteps < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "an application needs at least one step")
	}
	return &Application{
		ID:          appID,
		SchemeID:    schemeID,
		SessionID:   sessionID,
		CurrentStep: 1,
		TotalSteps:  totalSteps,
		Responses:   make(map[int]schememodels.Value, totalSteps),
		Status:      StatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Application) IsSubmitted() bool {
	return a.Status == StatusSubmitted
}

// CanSaveStep checks that stepNumber may be answered now: the application is still
// in progress, the step exists and it is not ahead of the current step.
// Use with ApplyStep in Execute callbacks.
func (a *Application) CanSaveStep(stepNumber int) error {
	if a.IsSubmitted() {
		return dErrors.New(dErrors.CodeApplicationAlreadySubmitted, "application has already been submitted")
	}
	if stepNumber < 1 || stepNumber > a.TotalSteps {
		return stepError(stepNumber, "out_of_range",
			fmt.Sprintf("step must be between 1 and %d", a.TotalSteps))
	}
	if stepNumber > a.CurrentStep {
		return stepError(stepNumber, "step_skipped",
			fmt.Sprintf("step %d cannot be answered before step %d", stepNumber, a.CurrentStep))
	}
	return nil
}

// ApplyStep records the answer and advances CurrentStep. Revisiting an earlier step
// overwrites its answer without moving CurrentStep back.
// Call CanSaveStep first.
func (a *Application) ApplyStep(stepNumber int, value schememodels.Value, now time.Time) {
	a.Responses[stepNumber] = value
	a.CurrentStep = max(a.CurrentStep, min(stepNumber+1, a.TotalSteps))
	a.UpdatedAt = now
}

// MissingSteps returns unanswered step numbers in ascending order.
func (a *Application) MissingSteps() []int {
	missing := []int{}
	for n := 1; n <= a.TotalSteps; n++ {
		if _, ok := a.Responses[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Completed reports whether every step has an answer.
func (a *Application) Completed() bool {
	return len(a.MissingSteps()) == 0
}

// NextStep returns the first unanswered step, or ok=false when all are answered.
func (a *Application) NextStep() (int, bool) {
	missing := a.MissingSteps()
	if len(missing) == 0 {
		return 0, false
	}
	return missing[0], true
}

// CanSubmit checks the application is in progress and fully answered.
func (a *Application) CanSubmit() error {
	if a.IsSubmitted() {
		return dErrors.New(dErrors.CodeApplicationAlreadySubmitted, "application has already been submitted")
	}
	missing := a.MissingSteps()
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeApplicationIncomplete, "application has unanswered steps").
			WithDetail("completedSteps", a.TotalSteps-len(missing)).
			WithDetail("totalSteps", a.TotalSteps).
			WithDetail("missingSteps", missing)
	}
	return nil
}

// ApplySubmission freezes the application under ref. Call CanSubmit first.
func (a *Application) ApplySubmission(ref id.TrackingReference, now time.Time) {
	a.Status = StatusSubmitted
	a.TrackingReference = ref
	a.SubmittedAt = &now
	a.UpdatedAt = now
}

// Clone returns a deep copy safe to hand to callers.
func (a *Application) Clone() *Application {
	c := *a
	c.Responses = maps.Clone(a.Responses)
	if c.Responses == nil {
		c.Responses = make(map[int]schememodels.Value)
	}
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}

// AnsweredSteps returns answered step numbers in ascending order.
func (a *Application) AnsweredSteps() []int {
	return slices.Sorted(maps.Keys(a.Responses))
}

func stepError(stepNumber int, reason, message string) error {
	return dErrors.New(dErrors.CodeValidation, message).
		WithDetail("step", stepNumber).
		WithDetail("reason", reason)
}
