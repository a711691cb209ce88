// Package i18n resolves dashboard strings for the supported languages.
package i18n

import (
	"golang.org/x/text/language"
)

var (
	supported = []language.Tag{language.Indonesian, language.English}
	matcher   = language.NewMatcher(supported)
)

// Translator looks up strings for one language. The zero value is not
// usable; call New.
type Translator struct {
	tag   language.Tag
	table map[string]string
}

// New returns a Translator for the closest supported match of lang, which
// may be a BCP 47 tag such as "en-US" or an Accept-Language list. Anything
// unrecognized resolves to Indonesian.
func New(lang string) *Translator {
	tag := language.Indonesian
	if lang != "" {
		if tags, _, err := language.ParseAcceptLanguage(lang); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Translator{tag: tag, table: tables[tag.String()]}
}

// Language returns the resolved base language, "id" or "en".
func (tr *Translator) Language() string {
	return tr.tag.String()
}

// T returns the string for key, falling back to English and then to the key
// itself.
func (tr *Translator) T(key string) string {
	if s, ok := tr.table[key]; ok {
		return s
	}
	if s, ok := tables["en"][key]; ok {
		return s
	}
	return key
}
