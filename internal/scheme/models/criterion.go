package models

import (
	"fmt"

	dErrors "schemeflow/pkg/domain-errors"
)

// Operator is the closed set of comparisons a criterion can apply.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpBetween            Operator = "between"
	OpIn                 Operator = "in"
)

// ParseOperator validates an operator name from a catalog file or request.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown operator %q", s))
	}
	return op, nil
}

func (o Operator) IsValid() bool {
	switch o {
	case OpEquals, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual, OpBetween, OpIn:
		return true
	}
	return false
}

func (o Operator) String() string { return string(o) }

// Criterion is one eligibility rule: a field, an operator and its operands.
//
// Operand usage by operator:
//   - equals, greaterThan(OrEqual), lessThan(OrEqual): Value
//   - between: Min and Max (inclusive)
//   - in: Values
type Criterion struct {
	Field       string        `json:"field" yaml:"field"`
	Operator    Operator      `json:"operator" yaml:"operator"`
	Value       Value         `json:"value,omitzero" yaml:"value"`
	Min         Value         `json:"min,omitzero" yaml:"min"`
	Max         Value         `json:"max,omitzero" yaml:"max"`
	Values      []Value       `json:"values,omitempty" yaml:"values"`
	Description LocalizedText `json:"description" yaml:"description"`
}

// Validate checks that the criterion names a field and carries the operands its operator needs.
func (c Criterion) Validate() error {
	if c.Field == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "criterion field is required")
	}
	switch c.Operator {
	case OpEquals, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		if c.Value.IsZero() {
			return c.invalid("requires a value")
		}
	case OpBetween:
		if c.Min.IsZero() || c.Max.IsZero() {
			return c.invalid("requires min and max")
		}
		if !c.Min.Comparable(c.Max) {
			return c.invalid("min and max must be numbers or dates of the same type")
		}
		if c.Min.Compare(c.Max) > 0 {
			return c.invalid("min must not exceed max")
		}
	case OpIn:
		if len(c.Values) == 0 {
			return c.invalid("requires at least one value")
		}
	default:
		return c.invalid(fmt.Sprintf("has unknown operator %q", c.Operator))
	}
	return nil
}

func (c Criterion) invalid(reason string) error {
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("criterion on %q %s", c.Field, reason))
}
