package eligibility

import (
	"fmt"
	"strings"

	"schemeflow/internal/scheme/models"
)

type explanationTemplate struct {
	eligible   string
	ineligible string
	mismatch   string
}

var explanationTemplates = map[string]explanationTemplate{
	"en": {
		eligible:   "You are eligible for this scheme. All %d criteria are met.",
		ineligible: "You are not eligible for this scheme. Criteria not met:",
		mismatch:   "Some answers could not be checked because of their format: %s.",
	},
	"hi": {
		eligible:   "आप इस योजना के लिए पात्र हैं। सभी %d मानदंड पूरे होते हैं।",
		ineligible: "आप इस योजना के लिए पात्र नहीं हैं। ये मानदंड पूरे नहीं होते:",
		mismatch:   "कुछ उत्तरों की जाँच उनके प्रारूप के कारण नहीं हो सकी: %s।",
	},
}

// GenerateExplanation formats an already computed result for the user. It never
// re-evaluates criteria.
func GenerateExplanation(result *Result, lang string) string {
	lang = models.MatchLanguage(lang)
	tmpl := explanationTemplates[lang]

	if result.Eligible {
		return fmt.Sprintf(tmpl.eligible, len(result.MetCriteria))
	}

	var b strings.Builder
	b.WriteString(tmpl.ineligible)
	for _, c := range result.UnmetCriteria {
		b.WriteString("\n- ")
		b.WriteString(describe(c, lang))
	}
	if len(result.MismatchedFields) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(tmpl.mismatch, strings.Join(result.MismatchedFields, ", ")))
	}
	return b.String()
}

// describe prefers the catalog's own wording and falls back to a generated English phrase.
func describe(c models.Criterion, lang string) string {
	if text := c.Description.In(lang); text != "" {
		return text
	}
	switch c.Operator {
	case models.OpEquals:
		return fmt.Sprintf("%s must be %s", c.Field, c.Value)
	case models.OpGreaterThan:
		return fmt.Sprintf("%s must be more than %s", c.Field, c.Value)
	case models.OpGreaterThanOrEqual:
		return fmt.Sprintf("%s must be at least %s", c.Field, c.Value)
	case models.OpLessThan:
		return fmt.Sprintf("%s must be less than %s", c.Field, c.Value)
	case models.OpLessThanOrEqual:
		return fmt.Sprintf("%s must be at most %s", c.Field, c.Value)
	case models.OpBetween:
		return fmt.Sprintf("%s must be between %s and %s", c.Field, c.Min, c.Max)
	case models.OpIn:
		options := make([]string, len(c.Values))
		for i, v := range c.Values {
			options[i] = v.String()
		}
		return fmt.Sprintf("%s must be one of %s", c.Field, strings.Join(options, ", "))
	}
	return c.Field
}
