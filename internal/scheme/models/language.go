package models

import "golang.org/x/text/language"

// DefaultLanguage is used when a localized string has no entry for the requested language.
const DefaultLanguage = "en"

var (
	supportedLanguages = []language.Tag{language.English, language.Hindi}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// MatchLanguage maps a BCP-47 tag or Accept-Language header to the closest supported
// presentation language. Unparseable or unsupported input resolves to English.
func MatchLanguage(tag string) string {
	if tag == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, _ := languageMatcher.Match(tags...)
	base, _ := supportedLanguages[index].Base()
	return base.String()
}

// SupportedLanguage reports whether tag names a language with catalog translations.
func SupportedLanguage(tag string) bool {
	parsed, err := language.Parse(tag)
	if err != nil {
		return false
	}
	_, _, confidence := languageMatcher.Match(parsed)
	return confidence >= language.High
}
