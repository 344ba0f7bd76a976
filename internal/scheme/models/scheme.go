package models

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

// LocalizedText maps a language tag to text.
type LocalizedText map[string]string

// In returns the text for lang, then for its closest supported language, then
// English, then the first entry in key order.
func (t LocalizedText) In(lang string) string {
	if s, ok := t[lang]; ok && s != "" {
		return s
	}
	if s, ok := t[MatchLanguage(lang)]; ok && s != "" {
		return s
	}
	if s, ok := t[DefaultLanguage]; ok {
		return s
	}
	for _, k := range slices.Sorted(maps.Keys(t)) {
		return t[k]
	}
	return ""
}

// UnmarshalYAML accepts either a plain string (English) or a language mapping.
func (t *LocalizedText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = LocalizedText{DefaultLanguage: node.Value}
		return nil
	}
	var m map[string]string
	if err := node.Decode(&m); err != nil {
		return err
	}
	*t = m
	return nil
}

// FieldType is the answer type an application step collects.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldSelect FieldType = "select"
	FieldDate   FieldType = "date"
)

func (f FieldType) IsValid() bool {
	switch f {
	case FieldText, FieldNumber, FieldSelect, FieldDate:
		return true
	}
	return false
}

// ValidationRule constrains a step's answer beyond its field type.
type ValidationRule struct {
	MinLength int      `json:"minLength,omitempty" yaml:"minLength"`
	MaxLength int      `json:"maxLength,omitempty" yaml:"maxLength"`
	Min       *float64 `json:"min,omitempty" yaml:"min"`
	Max       *float64 `json:"max,omitempty" yaml:"max"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern"`
	Message   string   `json:"message,omitempty" yaml:"message"`
}

// Step is one question of a scheme's application flow.
type Step struct {
	Number     int             `json:"stepNumber" yaml:"step"`
	Field      string          `json:"field" yaml:"field"`
	Question   LocalizedText   `json:"question" yaml:"question"`
	FieldType  FieldType       `json:"fieldType" yaml:"type"`
	Options    []string        `json:"options,omitempty" yaml:"options"`
	Validation *ValidationRule `json:"validation,omitempty" yaml:"validation"`
}

// Document is an entry of a scheme's document checklist. AppliesWhen narrows the
// document to applicants matching every listed criterion.
type Document struct {
	ID          string        `json:"id" yaml:"id"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description" yaml:"description"`
	Category    string        `json:"category" yaml:"category"`
	Icon        string        `json:"icon" yaml:"icon"`
	Required    bool          `json:"required" yaml:"required"`
	AppliesWhen []Criterion   `json:"appliesWhen,omitempty" yaml:"appliesWhen"`
}

// Scheme is a catalog entry. The engine treats it as read-only.
type Scheme struct {
	ID          id.SchemeID   `json:"id" yaml:"id"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description" yaml:"description"`
	Category    string        `json:"category" yaml:"category"`
	Criteria    []Criterion   `json:"criteria" yaml:"criteria"`
	Steps       []Step        `json:"steps" yaml:"steps"`
	Documents   []Document    `json:"documents" yaml:"documents"`
	Active      bool          `json:"active" yaml:"active"`
}

// TotalSteps returns the number of application steps.
func (s *Scheme) TotalSteps() int {
	return len(s.Steps)
}

// Step returns the step with the given 1-based number.
func (s *Scheme) Step(number int) (Step, bool) {
	if number < 1 || number > len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[number-1], true
}

// Validate enforces the catalog invariants the engine relies on: criteria are well
// formed, steps are numbered 1..n contiguously and document IDs are unique.
// Catalog adapters run it at load time; the engine does not re-check.
func (s *Scheme) Validate() error {
	if s.ID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "scheme ID is required")
	}
	for _, c := range s.Criteria {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("scheme %s: %w", s.ID, err)
		}
	}
	if len(s.Steps) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("scheme %s has no application steps", s.ID))
	}
	for i, step := range s.Steps {
		if step.Number != i+1 {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("scheme %s: step %d is numbered %d, steps must be contiguous from 1", s.ID, i+1, step.Number))
		}
		if !step.FieldType.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("scheme %s: step %d has unknown field type %q", s.ID, step.Number, step.FieldType))
		}
		if step.FieldType == FieldSelect && len(step.Options) == 0 {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("scheme %s: select step %d has no options", s.ID, step.Number))
		}
		if step.Validation != nil && step.Validation.Pattern != "" {
			if _, err := regexp.Compile(step.Validation.Pattern); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation,
					fmt.Sprintf("scheme %s: step %d has an invalid pattern", s.ID, step.Number))
			}
		}
	}
	seen := make(map[string]struct{}, len(s.Documents))
	for _, doc := range s.Documents {
		if _, dup := seen[doc.ID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("scheme %s: duplicate document %q", s.ID, doc.ID))
		}
		seen[doc.ID] = struct{}{}
		for _, c := range doc.AppliesWhen {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("scheme %s document %s: %w", s.ID, doc.ID, err)
			}
		}
	}
	return nil
}
