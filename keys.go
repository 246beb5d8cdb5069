package apilocale

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CacheKey builds the translation cache key for a target language and source text.
func CacheKey(targetLang, text string) string {
	return targetLang + ":" + text
}

// PersistentKey builds the persisted translation key, {TranslationPrefix}{target}:{text}.
func PersistentKey(targetLang, text string) string {
	return TranslationPrefix + CacheKey(targetLang, text)
}

// ResponseKey builds the response cache key, {CachePrefix}{lang}_{METHOD}_{url}.
func ResponseKey(lang, method, url string) string {
	return CachePrefix + lang + "_" + strings.ToUpper(method) + "_" + url
}

// LanguagePrefix is the key prefix covering every response cached for lang.
func LanguagePrefix(lang string) string {
	return CachePrefix + lang + "_"
}

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(hash[:])
}
