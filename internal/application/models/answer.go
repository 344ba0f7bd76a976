package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	schememodels "schemeflow/internal/scheme/models"
	dErrors "schemeflow/pkg/domain-errors"
)

const maxTextAnswerLength = 2000

// NormalizeAnswer checks value against the step's field type and validation rule and
// returns it in canonical form: numeric strings on number steps become numbers,
// YYYY-MM-DD strings on date steps become dates and select answers take the
// option's catalog spelling.
func NormalizeAnswer(step schememodels.Step, value schememodels.Value) (schememodels.Value, error) {
	if value.IsZero() {
		return schememodels.Value{}, answerError(step, "required", "an answer is required")
	}

	var (
		normalized schememodels.Value
		err        error
	)
	switch step.FieldType {
	case schememodels.FieldText:
		normalized, err = normalizeText(step, value)
	case schememodels.FieldNumber:
		normalized, err = normalizeNumber(step, value)
	case schememodels.FieldDate:
		normalized, err = normalizeDate(step, value)
	case schememodels.FieldSelect:
		normalized, err = normalizeSelect(step, value)
	default:
		return schememodels.Value{}, answerError(step, "unsupported_type", "this step cannot be answered")
	}
	if err != nil {
		return schememodels.Value{}, err
	}
	if err := applyRule(step, normalized); err != nil {
		return schememodels.Value{}, err
	}
	return normalized, nil
}

func normalizeText(step schememodels.Step, value schememodels.Value) (schememodels.Value, error) {
	s, ok := value.AsString()
	if !ok {
		return schememodels.Value{}, answerError(step, "type_mismatch", "expected a text answer")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return schememodels.Value{}, answerError(step, "required", "an answer is required")
	}
	if utf8.RuneCountInString(s) > maxTextAnswerLength {
		return schememodels.Value{}, answerError(step, "too_long", "answer is too long")
	}
	return schememodels.Text(s), nil
}

func normalizeNumber(step schememodels.Step, value schememodels.Value) (schememodels.Value, error) {
	if _, ok := value.AsNumber(); ok {
		return value, nil
	}
	if s, ok := value.AsString(); ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return schememodels.Number(n), nil
		}
	}
	return schememodels.Value{}, answerError(step, "type_mismatch", "expected a number")
}

func normalizeDate(step schememodels.Step, value schememodels.Value) (schememodels.Value, error) {
	if _, ok := value.AsDate(); ok {
		return value, nil
	}
	if s, ok := value.AsString(); ok {
		if d, err := schememodels.ParseDate(strings.TrimSpace(s)); err == nil {
			return d, nil
		}
	}
	return schememodels.Value{}, answerError(step, "type_mismatch", "expected a date in YYYY-MM-DD format")
}

func normalizeSelect(step schememodels.Step, value schememodels.Value) (schememodels.Value, error) {
	s, ok := value.AsString()
	if !ok {
		return schememodels.Value{}, answerError(step, "type_mismatch", "expected one of the listed options")
	}
	s = strings.TrimSpace(s)
	for _, option := range step.Options {
		if strings.EqualFold(option, s) {
			return schememodels.Select(option), nil
		}
	}
	return schememodels.Value{}, answerError(step, "invalid_option", "answer is not one of the listed options")
}

func applyRule(step schememodels.Step, value schememodels.Value) error {
	rule := step.Validation
	if rule == nil {
		return nil
	}
	fail := func(reason, fallback string) error {
		msg := fallback
		if rule.Message != "" {
			msg = rule.Message
		}
		return answerError(step, reason, msg)
	}

	if s, ok := value.AsString(); ok {
		length := utf8.RuneCountInString(s)
		if rule.MinLength > 0 && length < rule.MinLength {
			return fail("too_short", fmt.Sprintf("answer must be at least %d characters", rule.MinLength))
		}
		if rule.MaxLength > 0 && length > rule.MaxLength {
			return fail("too_long", fmt.Sprintf("answer must be at most %d characters", rule.MaxLength))
		}
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil || !re.MatchString(s) {
				return fail("pattern", "answer has an invalid format")
			}
		}
	}
	if n, ok := value.AsNumber(); ok {
		if rule.Min != nil && n < *rule.Min {
			return fail("below_min", fmt.Sprintf("answer must be at least %v", *rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			return fail("above_max", fmt.Sprintf("answer must be at most %v", *rule.Max))
		}
	}
	return nil
}

func answerError(step schememodels.Step, reason, message string) error {
	return dErrors.New(dErrors.CodeValidation, message).
		WithDetail("field", step.Field).
		WithDetail("step", step.Number).
		WithDetail("reason", reason)
}
