package apilocale

import (
	"strings"

	"golang.org/x/text/language"
)

// LanguageNames maps base language codes to English names, used in
// endpoint prompts and admin responses.
var LanguageNames = map[string]string{
	"fr": "French",
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ar": "Arabic",
	"zh": "Chinese",
	"ja": "Japanese",
	"ru": "Russian",
	"tr": "Turkish",
	"pl": "Polish",
	"wo": "Wolof",
}

// RTLLanguages contains base language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
}

// BaseLang extracts the lower-cased base language code ("en" from "en_US" or "en-GB").
func BaseLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "_-"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// SameLanguage reports whether two codes share a base language.
func SameLanguage(a, b string) bool {
	return BaseLang(a) == BaseLang(b)
}

// GetLanguageName returns the English name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(lang string) string {
	if name, ok := LanguageNames[BaseLang(lang)]; ok {
		return name
	}
	return lang
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(lang string) string {
	if RTLLanguages[BaseLang(lang)] {
		return "rtl"
	}
	return "ltr"
}

// MatchAcceptLanguage picks the best supported base language for an
// Accept-Language header. It returns "" when nothing matches.
func MatchAcceptLanguage(header string, supported []string) string {
	if header == "" || len(supported) == 0 {
		return ""
	}

	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return ""
	}

	tags := make([]language.Tag, 0, len(supported))
	codes := make([]string, 0, len(supported))
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, s)
	}
	if len(tags) == 0 {
		return ""
	}

	_, index, confidence := language.NewMatcher(tags).Match(desired...)
	if confidence == language.No {
		return ""
	}
	return BaseLang(codes[index])
}
