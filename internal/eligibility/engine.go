// Package eligibility decides scheme qualification and the document checklist.
//
// Everything here is a pure function of a scheme and user inputs: no I/O, no clock,
// no randomness and no shared mutable state, so it is safe for unbounded concurrent use.
package eligibility

import (
	"slices"

	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

// Result is an eligibility verdict.
//
// Invariants:
//   - MetCriteria and UnmetCriteria partition the scheme's criteria, in declaration order
//   - Eligible == (len(UnmetCriteria) == 0)
//   - MismatchedFields lists fields whose value type the operator could not compare;
//     their criteria are in UnmetCriteria
type Result struct {
	SchemeID         id.SchemeID        `json:"schemeId"`
	Eligible         bool               `json:"eligible"`
	MetCriteria      []models.Criterion `json:"metCriteria"`
	UnmetCriteria    []models.Criterion `json:"unmetCriteria"`
	MismatchedFields []string           `json:"mismatchedFields,omitempty"`
}

// CheckEligibility evaluates every criterion of scheme against inputs.
//
// Fields referenced by a criterion but absent from inputs make the call fail with
// CodeInvalidEligibilityInputs (details: missingFields) before any verdict is formed,
// so "ineligible" and "insufficient input" are never conflated.
func CheckEligibility(scheme *models.Scheme, inputs models.Inputs) (*Result, error) {
	if missing := MissingFields(scheme.Criteria, inputs); len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeInvalidEligibilityInputs, "eligibility inputs are missing required fields").
			WithDetail("missingFields", missing)
	}

	result := &Result{
		SchemeID:      scheme.ID,
		MetCriteria:   []models.Criterion{},
		UnmetCriteria: []models.Criterion{},
	}
	for _, c := range scheme.Criteria {
		v, present := inputs.Lookup(c.Field)
		switch outcome := Evaluate(c, v, present); outcome {
		case Met:
			result.MetCriteria = append(result.MetCriteria, c)
		case Mismatch:
			result.UnmetCriteria = append(result.UnmetCriteria, c)
			if !slices.Contains(result.MismatchedFields, c.Field) {
				result.MismatchedFields = append(result.MismatchedFields, c.Field)
			}
		default:
			result.UnmetCriteria = append(result.UnmetCriteria, c)
		}
	}
	result.Eligible = len(result.UnmetCriteria) == 0
	return result, nil
}

// MissingFields returns the criterion fields absent from inputs, deduplicated, in
// declaration order.
func MissingFields(criteria []models.Criterion, inputs models.Inputs) []string {
	var missing []string
	for _, c := range criteria {
		if _, ok := inputs.Lookup(c.Field); ok {
			continue
		}
		if !slices.Contains(missing, c.Field) {
			missing = append(missing, c.Field)
		}
	}
	return missing
}
