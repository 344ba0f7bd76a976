package handler

import (
	"strings"

	dErrors "schemeflow/pkg/domain-errors"
)

type CreateSessionRequest struct {
	Language string `json:"language,omitempty"`
}

func (r *CreateSessionRequest) Normalize() {
	r.Language = strings.TrimSpace(r.Language)
}

type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r *AppendMessageRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *AppendMessageRequest) Validate() error {
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

// UpdateContextRequest merges keys into the session context. An empty string
// removes a key.
type UpdateContextRequest struct {
	Context map[string]string `json:"context"`
}

func (r *UpdateContextRequest) Validate() error {
	if len(r.Context) == 0 {
		return dErrors.New(dErrors.CodeValidation, "context must contain at least one key")
	}
	return nil
}

type SetLanguageRequest struct {
	Language string `json:"language"`
}

func (r *SetLanguageRequest) Normalize() {
	r.Language = strings.TrimSpace(r.Language)
}

func (r *SetLanguageRequest) Validate() error {
	if r.Language == "" {
		return dErrors.New(dErrors.CodeValidation, "language is required")
	}
	return nil
}
