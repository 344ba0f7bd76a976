package handler

import (
	"strings"

	"schemeflow/internal/scheme/models"
	dErrors "schemeflow/pkg/domain-errors"
)

const (
	maxInputs        = 100
	maxFieldNameSize = 64
)

// InputsRequest carries user answers keyed by criterion field. Values are bare JSON
// numbers or strings, or tagged objects such as {"type":"date","value":"1958-04-02"}.
type InputsRequest struct {
	Inputs models.Inputs `json:"inputs"`
}

// Normalize trims field names.
func (r *InputsRequest) Normalize() {
	if len(r.Inputs) == 0 {
		return
	}
	normalized := make(models.Inputs, len(r.Inputs))
	for field, v := range r.Inputs {
		normalized[strings.TrimSpace(field)] = v
	}
	r.Inputs = normalized
}

// Validate implements httputil.Validatable.
func (r *InputsRequest) Validate() error {
	if len(r.Inputs) > maxInputs {
		return dErrors.New(dErrors.CodeValidation, "too many inputs")
	}
	for field := range r.Inputs {
		if field == "" {
			return dErrors.New(dErrors.CodeValidation, "input field names must not be empty")
		}
		if len(field) > maxFieldNameSize {
			return dErrors.New(dErrors.CodeValidation, "input field names must be at most 64 characters")
		}
	}
	return nil
}
