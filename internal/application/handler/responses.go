package handler

import (
	"time"

	"schemeflow/internal/application/models"
	"schemeflow/internal/application/service"
	schememodels "schemeflow/internal/scheme/models"
)

type StepResponse struct {
	StepNumber int                          `json:"stepNumber"`
	Field      string                       `json:"field"`
	Question   string                       `json:"question"`
	FieldType  string                       `json:"fieldType"`
	Options    []string                     `json:"options,omitempty"`
	Validation *schememodels.ValidationRule `json:"validation,omitempty"`
}

type StartResponse struct {
	ApplicationID string       `json:"applicationId"`
	SchemeID      string       `json:"schemeId"`
	TotalSteps    int          `json:"totalSteps"`
	FirstStep     StepResponse `json:"firstStep"`
	CurrentStep   StepResponse `json:"currentStep"`
	Resumed       bool         `json:"resumed"`
}

type ProgressResponse struct {
	ApplicationID string        `json:"applicationId"`
	CurrentStep   int           `json:"currentStep"`
	TotalSteps    int           `json:"totalSteps"`
	Completed     bool          `json:"completed"`
	MissingSteps  []int         `json:"missingSteps"`
	NextStep      *StepResponse `json:"nextStep,omitempty"`
}

type ApplicationResponse struct {
	ApplicationID     string                     `json:"applicationId"`
	SchemeID          string                     `json:"schemeId"`
	Status            string                     `json:"status"`
	CurrentStep       int                        `json:"currentStep"`
	TotalSteps        int                        `json:"totalSteps"`
	Completed         bool                       `json:"completed"`
	Responses         map[int]schememodels.Value `json:"responses"`
	TrackingReference string                     `json:"trackingReference,omitempty"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
	SubmittedAt       *time.Time                 `json:"submittedAt,omitempty"`
}

type SubmitResponse struct {
	ApplicationID     string    `json:"applicationId"`
	TrackingReference string    `json:"trackingReference"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

type StatusResponse struct {
	TrackingReference string    `json:"trackingReference"`
	SchemeID          string    `json:"schemeId"`
	Status            string    `json:"status"`
	StatusMessage     string    `json:"statusMessage"`
	NextSteps         []string  `json:"nextSteps"`
	SubmittedAt       time.Time `json:"submittedAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toStepResponse(step schememodels.Step, lang string) StepResponse {
	return StepResponse{
		StepNumber: step.Number,
		Field:      step.Field,
		Question:   step.Question.In(lang),
		FieldType:  string(step.FieldType),
		Options:    step.Options,
		Validation: step.Validation,
	}
}

func toStartResponse(res *service.StartResult, lang string) StartResponse {
	return StartResponse{
		ApplicationID: res.ApplicationID.String(),
		SchemeID:      string(res.SchemeID),
		TotalSteps:    res.TotalSteps,
		FirstStep:     toStepResponse(res.FirstStep, lang),
		CurrentStep:   toStepResponse(res.CurrentStep, lang),
		Resumed:       res.Resumed,
	}
}

func toProgressResponse(res *service.ProgressResult, lang string) ProgressResponse {
	out := ProgressResponse{
		ApplicationID: res.ApplicationID.String(),
		CurrentStep:   res.CurrentStep,
		TotalSteps:    res.TotalSteps,
		Completed:     res.Completed,
		MissingSteps:  res.MissingSteps,
	}
	if out.MissingSteps == nil {
		out.MissingSteps = []int{}
	}
	if res.NextStep != nil {
		step := toStepResponse(*res.NextStep, lang)
		out.NextStep = &step
	}
	return out
}

func toApplicationResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID:     app.ID.String(),
		SchemeID:          string(app.SchemeID),
		Status:            string(app.Status),
		CurrentStep:       app.CurrentStep,
		TotalSteps:        app.TotalSteps,
		Completed:         app.Completed(),
		Responses:         app.Responses,
		TrackingReference: string(app.TrackingReference),
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
		SubmittedAt:       app.SubmittedAt,
	}
}

func toStatusResponse(res *service.StatusResult) StatusResponse {
	return StatusResponse{
		TrackingReference: string(res.TrackingReference),
		SchemeID:          string(res.SchemeID),
		Status:            string(res.Status),
		StatusMessage:     res.StatusMessage,
		NextSteps:         res.NextSteps,
		SubmittedAt:       res.SubmittedAt,
		UpdatedAt:         res.UpdatedAt,
	}
}
