package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schememodels "schemeflow/internal/scheme/models"
	dErrors "schemeflow/pkg/domain-errors"
)

func ptr(f float64) *float64 { return &f }

func TestNormalizeAnswer(t *testing.T) {
	nameStep := schememodels.Step{Number: 1, Field: "full_name", FieldType: schememodels.FieldText,
		Validation: &schememodels.ValidationRule{MinLength: 2, MaxLength: 10}}
	scoreStep := schememodels.Step{Number: 2, Field: "score", FieldType: schememodels.FieldNumber,
		Validation: &schememodels.ValidationRule{Min: ptr(0), Max: ptr(100)}}
	dobStep := schememodels.Step{Number: 3, Field: "date_of_birth", FieldType: schememodels.FieldDate}
	districtStep := schememodels.Step{Number: 4, Field: "district", FieldType: schememodels.FieldSelect,
		Options: []string{"North", "South"}}
	accountStep := schememodels.Step{Number: 5, Field: "bank_account", FieldType: schememodels.FieldText,
		Validation: &schememodels.ValidationRule{Pattern: `^[0-9]{9,18}$`, Message: "Bank account numbers have 9 to 18 digits"}}

	dob, err := schememodels.ParseDate("1958-04-02")
	require.NoError(t, err)

	valid := []struct {
		name  string
		step  schememodels.Step
		value schememodels.Value
		want  schememodels.Value
	}{
		{"trims text", nameStep, schememodels.Text("  Asha "), schememodels.Text("Asha")},
		{"number", scoreStep, schememodels.Number(88.5), schememodels.Number(88.5)},
		{"numeric string", scoreStep, schememodels.Text(" 42 "), schememodels.Number(42)},
		{"date value", dobStep, dob, dob},
		{"date string", dobStep, schememodels.Text("1958-04-02"), dob},
		{"select option case-insensitive", districtStep, schememodels.Text("north"), schememodels.Select("North")},
		{"pattern match", accountStep, schememodels.Text("123456789012"), schememodels.Text("123456789012")},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAnswer(tt.step, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct {
		name   string
		step   schememodels.Step
		value  schememodels.Value
		reason string
	}{
		{"empty value", nameStep, schememodels.Value{}, "required"},
		{"blank text", nameStep, schememodels.Text("   "), "required"},
		{"too short", nameStep, schememodels.Text("A"), "too_short"},
		{"too long", nameStep, schememodels.Text("Asha Kumari Devi"), "too_long"},
		{"number on text step", nameStep, schememodels.Number(3), "type_mismatch"},
		{"word on number step", scoreStep, schememodels.Text("ninety"), "type_mismatch"},
		{"below min", scoreStep, schememodels.Number(-1), "below_min"},
		{"above max", scoreStep, schememodels.Number(101), "above_max"},
		{"bad date", dobStep, schememodels.Text("02/04/1958"), "type_mismatch"},
		{"unknown option", districtStep, schememodels.Text("East"), "invalid_option"},
		{"pattern miss", accountStep, schememodels.Text("12AB"), "pattern"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeAnswer(tt.step, tt.value)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			details := dErrors.DetailsOf(err)
			assert.Equal(t, tt.reason, details["reason"])
			assert.Equal(t, tt.step.Field, details["field"])
			assert.Equal(t, tt.step.Number, details["step"])
		})
	}

	t.Run("rule message overrides default", func(t *testing.T) {
		_, err := NormalizeAnswer(accountStep, schememodels.Text("12AB"))
		assert.ErrorContains(t, err, "Bank account numbers have 9 to 18 digits")
	})
}
