package handler

import (
	"strings"

	schememodels "schemeflow/internal/scheme/models"
	dErrors "schemeflow/pkg/domain-errors"
)

type StartRequest struct {
	SchemeID  string `json:"schemeId"`
	SessionID string `json:"sessionId,omitempty"`
}

func (r *StartRequest) Normalize() {
	r.SchemeID = strings.TrimSpace(r.SchemeID)
	r.SessionID = strings.TrimSpace(r.SessionID)
}

func (r *StartRequest) Validate() error {
	if r.SchemeID == "" {
		return dErrors.New(dErrors.CodeValidation, "schemeId is required")
	}
	return nil
}

// SaveStepRequest carries one answer: a bare JSON string or number, or a tagged
// value such as {"type":"date","value":"1952-08-14"}.
type SaveStepRequest struct {
	Value schememodels.Value `json:"value"`
}

func (r *SaveStepRequest) Validate() error {
	if r.Value.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}
