package eligibility

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"schemeflow/internal/scheme/models"
)

func propertyScheme() *models.Scheme {
	return &models.Scheme{
		ID: "property-scheme",
		Criteria: []models.Criterion{
			{Field: "age", Operator: models.OpGreaterThanOrEqual, Value: models.Number(18)},
			{Field: "age", Operator: models.OpLessThan, Value: models.Number(60)},
			{Field: "income", Operator: models.OpBetween, Min: models.Number(0), Max: models.Number(500000)},
			{Field: "state", Operator: models.OpIn, Values: []models.Value{models.Text("Kerala"), models.Text("Goa")}},
		},
	}
}

func TestCheckEligibilityProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	scheme := propertyScheme()

	inputs := func(age, income int, state string) models.Inputs {
		return models.Inputs{
			"age":    models.Number(float64(age)),
			"income": models.Number(float64(income)),
			"state":  models.Text(state),
		}
	}
	states := gen.OneConstOf("Kerala", "Goa", "Punjab", "Assam")

	properties.Property("met and unmet partition the criteria", prop.ForAll(
		func(age, income int, state string) bool {
			result, err := CheckEligibility(scheme, inputs(age, income, state))
			if err != nil {
				return false
			}
			return len(result.MetCriteria)+len(result.UnmetCriteria) == len(scheme.Criteria)
		},
		gen.IntRange(0, 120), gen.IntRange(-1000, 1000000), states,
	))

	properties.Property("eligible exactly when nothing is unmet", prop.ForAll(
		func(age, income int, state string) bool {
			result, err := CheckEligibility(scheme, inputs(age, income, state))
			if err != nil {
				return false
			}
			return result.Eligible == (len(result.UnmetCriteria) == 0)
		},
		gen.IntRange(0, 120), gen.IntRange(-1000, 1000000), states,
	))

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(age, income int, state string) bool {
			first, err1 := CheckEligibility(scheme, inputs(age, income, state))
			second, err2 := CheckEligibility(scheme, inputs(age, income, state))
			if err1 != nil || err2 != nil {
				return false
			}
			return first.Eligible == second.Eligible &&
				len(first.MetCriteria) == len(second.MetCriteria) &&
				len(first.UnmetCriteria) == len(second.UnmetCriteria)
		},
		gen.IntRange(0, 120), gen.IntRange(-1000, 1000000), states,
	))

	properties.Property("age bounds decide the age criteria", prop.ForAll(
		func(age int) bool {
			result, err := CheckEligibility(scheme, inputs(age, 1000, "Kerala"))
			if err != nil {
				return false
			}
			return result.Eligible == (age >= 18 && age < 60)
		},
		gen.IntRange(0, 120),
	))

	properties.TestingRun(t)
}
