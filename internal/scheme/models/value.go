package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "schemeflow/pkg/domain-errors"
)

// DateLayout is the wire format of date values: a calendar day.
const DateLayout = "2006-01-02"

// ValueKind tags the payload carried by a Value.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindDate   ValueKind = "date"
	KindSelect ValueKind = "select"
)

// Value is a typed user answer or criterion operand. The explicit kind lets the
// evaluator reject type mismatches instead of coercing loosely.
// The zero Value has no kind and is never equal to anything.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	date time.Time
}

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Text(s string) Value    { return Value{kind: KindText, str: s} }
func Select(s string) Value  { return Value{kind: KindSelect, str: s} }
func Date(t time.Time) Value { return Value{kind: KindDate, date: truncateDay(t)} }

// ParseDate builds a date Value from YYYY-MM-DD.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD")
	}
	return Date(t), nil
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsZero() bool    { return v.kind == "" }

// AsNumber returns the numeric payload; ok is false for non-number values.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsString returns the payload of text and select values.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindText || v.kind == KindSelect
}

// AsDate returns the payload of date values.
func (v Value) AsDate() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// Equal reports strict equality. Text and select values compare as strings, since a
// select answer is one of the catalog's text options.
func (v Value) Equal(o Value) bool {
	switch {
	case v.kind == "" || o.kind == "":
		return false
	case v.isStringLike() && o.isStringLike():
		return v.str == o.str
	case v.kind != o.kind:
		return false
	case v.kind == KindNumber:
		return v.num == o.num
	case v.kind == KindDate:
		return v.date.Equal(o.date)
	}
	return false
}

// Comparable reports whether v and o can be ordered against each other.
func (v Value) Comparable(o Value) bool {
	return v.kind == o.kind && (v.kind == KindNumber || v.kind == KindDate)
}

// Compare orders two comparable values: -1, 0 or +1. Callers check Comparable first.
func (v Value) Compare(o Value) int {
	if v.kind == KindDate {
		return v.date.Compare(o.date)
	}
	switch {
	case v.num < o.num:
		return -1
	case v.num > o.num:
		return 1
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateLayout)
	case KindText, KindSelect:
		return v.str
	}
	return ""
}

func (v Value) isStringLike() bool {
	return v.kind == KindText || v.kind == KindSelect
}

type taggedValue struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON always emits the tagged form {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == "" {
		return []byte("null"), nil
	}
	var payload any
	switch v.kind {
	case KindNumber:
		payload = v.num
	default:
		payload = v.String()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: v.kind, Value: raw})
}

// UnmarshalJSON accepts a bare number, a bare string (text) or the tagged form.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '{':
		var tagged taggedValue
		if err := json.Unmarshal(data, &tagged); err != nil {
			return err
		}
		parsed, err := decodeTagged(tagged.Type, tagged.Value)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	case 't', 'f', '[':
		return fmt.Errorf("unsupported value: %s", data)
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported value: %w", err)
	}
	*v = Number(n)
	return nil
}

// UnmarshalYAML decodes catalog files: numeric scalars become numbers, other scalars
// text, unquoted dates dates, and {type, value} mappings the tagged kind.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int", "!!float":
			n, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return fmt.Errorf("line %d: number value: %w", node.Line, err)
			}
			*v = Number(n)
		case "!!timestamp":
			parsed, err := ParseDate(node.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", node.Line, err)
			}
			*v = parsed
		case "!!null":
			*v = Value{}
		default:
			*v = Text(node.Value)
		}
		return nil
	case yaml.MappingNode:
		var tagged struct {
			Type  ValueKind `yaml:"type"`
			Value string    `yaml:"value"`
		}
		if err := node.Decode(&tagged); err != nil {
			return err
		}
		raw, err := json.Marshal(tagged.Value)
		if err != nil {
			return err
		}
		if tagged.Type == KindNumber {
			raw = []byte(tagged.Value)
		}
		parsed, err := decodeTagged(tagged.Type, raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = parsed
		return nil
	}
	return fmt.Errorf("line %d: unsupported value", node.Line)
}

func decodeTagged(kind ValueKind, raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("tagged value of type %q has no value", kind)
	}
	switch kind {
	case KindNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, fmt.Errorf("number value: %w", err)
		}
		return Number(n), nil
	case KindText, KindSelect, KindDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("%s value: %w", kind, err)
		}
		switch kind {
		case KindText:
			return Text(s), nil
		case KindSelect:
			return Select(s), nil
		}
		return ParseDate(s)
	}
	return Value{}, fmt.Errorf("unknown value type %q", kind)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Inputs are user-supplied answers keyed by criterion field.
type Inputs map[string]Value

// Lookup returns the value for field; absent and zero values report ok=false.
func (in Inputs) Lookup(field string) (Value, bool) {
	v, ok := in[field]
	if !ok || v.IsZero() {
		return Value{}, false
	}
	return v, true
}
