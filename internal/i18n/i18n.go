// Package i18n resolves localized display text for the three portal languages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a portal display language code
type Language string

const (
	English Language = "en"
	Swahili Language = "sw"
	Korean  Language = "ko"
)

// Default is the language every record carries unconditionally
const Default = English

// Supported lists the display languages in selector order
var Supported = []Language{English, Swahili, Korean}

var labels = map[Language]string{
	English: "English",
	Swahili: "Kiswahili",
	Korean:  "한국어",
}

// ParseLanguage maps a language code to a supported Language, falling back to Default
func ParseLanguage(code string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case Swahili:
		return Swahili
	case Korean:
		return Korean
	default:
		return English
	}
}

// Label returns the native display name of the language
func Label(lang Language) string {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[Default]
}

// Resolve returns the override for lang when present and non-blank, else defaultText.
// It never fails; the default language always yields defaultText.
func Resolve(defaultText string, alts map[Language]string, lang Language) string {
	if lang == Default {
		return defaultText
	}
	if alt, ok := alts[lang]; ok && strings.TrimSpace(alt) != "" {
		return alt
	}
	return defaultText
}

// Variants is a piece of text in the default language plus optional overrides.
// Card titles and category names both resolve through it.
type Variants struct {
	Default string
	Swahili string
	Korean  string
}

// In resolves the variant for the requested language
func (v Variants) In(lang Language) string {
	return Resolve(v.Default, map[Language]string{
		Swahili: v.Swahili,
		Korean:  v.Korean,
	}, lang)
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Swahili,
	language.Korean,
})

// Negotiate picks the best supported language for an Accept-Language header
func Negotiate(acceptLanguage string) Language {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}
