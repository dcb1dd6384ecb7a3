package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

type Language string

const (
	Romanian Language = "ro"
	English  Language = "en"
)

var (
	defaultLanguage = Romanian
	supported       = []language.Tag{language.Romanian, language.English}
	matcher         = language.NewMatcher(supported)
)

// SetDefault changes the language used when a request expresses no
// preference. Unknown values are ignored.
func SetDefault(lang string) {
	if l, ok := parse(lang); ok {
		defaultLanguage = l
	}
}

// Tag returns the BCP 47 tag of the language.
func (l Language) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Romanian
}

func parse(value string) (Language, bool) {
	switch value {
	case "ro":
		return Romanian, true
	case "en":
		return English, true
	}
	return "", false
}

// GetLanguageFromRequest extracts the language from the lang query
// parameter, then the lang cookie, then the Accept-Language header.
func GetLanguageFromRequest(r *http.Request) Language {
	if l, ok := parse(r.URL.Query().Get("lang")); ok {
		return l
	}

	if cookie, err := r.Cookie("lang"); err == nil {
		if l, ok := parse(cookie.Value); ok {
			return l
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, index, confidence := matcher.Match(tags...)
			if confidence != language.No {
				if supported[index] == language.English {
					return English
				}
				return Romanian
			}
		}
	}

	return defaultLanguage
}
