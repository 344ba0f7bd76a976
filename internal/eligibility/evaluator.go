package eligibility

import "schemeflow/internal/scheme/models"

// Outcome is the result of evaluating one criterion against one value.
type Outcome int

const (
	// Met: the value satisfies the criterion.
	Met Outcome = iota
	// Unmet: the value is well typed but fails the check.
	Unmet
	// Missing: the input has no value for the criterion's field.
	Missing
	// Mismatch: the value's type cannot be compared by the criterion's operator.
	// Treated as unmet by the engine; never a pass.
	Mismatch
)

func (o Outcome) String() string {
	switch o {
	case Met:
		return "met"
	case Unmet:
		return "unmet"
	case Missing:
		return "missing"
	case Mismatch:
		return "mismatch"
	}
	return "unknown"
}

// Satisfied reports whether the outcome counts as a pass.
func (o Outcome) Satisfied() bool {
	return o == Met
}

// Evaluate checks one criterion against one user value. Pure: the same arguments
// always produce the same outcome.
func Evaluate(c models.Criterion, v models.Value, present bool) Outcome {
	if !present || v.IsZero() {
		return Missing
	}
	switch c.Operator {
	case models.OpEquals:
		if !sameClass(v, c.Value) {
			return Mismatch
		}
		return boolOutcome(v.Equal(c.Value))
	case models.OpGreaterThan:
		return compare(v, c.Value, func(cmp int) bool { return cmp > 0 })
	case models.OpGreaterThanOrEqual:
		return compare(v, c.Value, func(cmp int) bool { return cmp >= 0 })
	case models.OpLessThan:
		return compare(v, c.Value, func(cmp int) bool { return cmp < 0 })
	case models.OpLessThanOrEqual:
		return compare(v, c.Value, func(cmp int) bool { return cmp <= 0 })
	case models.OpBetween:
		if !v.Comparable(c.Min) || !v.Comparable(c.Max) {
			return Mismatch
		}
		return boolOutcome(v.Compare(c.Min) >= 0 && v.Compare(c.Max) <= 0)
	case models.OpIn:
		matchedClass := false
		for _, candidate := range c.Values {
			if !sameClass(v, candidate) {
				continue
			}
			matchedClass = true
			if v.Equal(candidate) {
				return Met
			}
		}
		if !matchedClass {
			return Mismatch
		}
		return Unmet
	}
	// Unknown operators never pass.
	return Mismatch
}

func compare(v, operand models.Value, accept func(int) bool) Outcome {
	if !v.Comparable(operand) {
		return Mismatch
	}
	return boolOutcome(accept(v.Compare(operand)))
}

// sameClass reports whether two values can be tested for equality at all.
func sameClass(a, b models.Value) bool {
	_, aStr := a.AsString()
	_, bStr := b.AsString()
	if aStr || bStr {
		return aStr && bStr
	}
	return a.Kind() == b.Kind()
}

func boolOutcome(ok bool) Outcome {
	if ok {
		return Met
	}
	return Unmet
}
