package apilocale

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
)

// ErrUnsupportedLanguage is returned when switching to a language outside the supported list.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// LanguageListener is notified after the active language changes.
type LanguageListener func(ctx context.Context, previous, next string)

// Session holds the active UI language shared by both pipeline stages.
type Session struct {
	mu        sync.RWMutex
	current   string
	supported []string
	listeners []LanguageListener
}

// NewSession creates a session starting at initial. An empty supported list
// accepts any language.
func NewSession(initial string, supported []string) *Session {
	if initial == "" {
		initial = SourceLang
	}

	normalized := make([]string, 0, len(supported))
	for _, lang := range supported {
		if base := BaseLang(lang); base != "" && !slices.Contains(normalized, base) {
			normalized = append(normalized, base)
		}
	}

	return &Session{
		current:   BaseLang(initial),
		supported: normalized,
	}
}

// Current returns the active language.
func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Supported returns a copy of the supported languages.
func (s *Session) Supported() []string {
	return slices.Clone(s.supported)
}

// IsSupported reports whether lang may be activated.
func (s *Session) IsSupported(lang string) bool {
	base := BaseLang(lang)
	if base == "" {
		return false
	}
	return len(s.supported) == 0 || slices.Contains(s.supported, base)
}

// OnSwitch registers a listener invoked synchronously by Switch.
func (s *Session) OnSwitch(l LanguageListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Switch activates lang and notifies listeners when it differs from the
// current language.
func (s *Session) Switch(ctx context.Context, lang string) error {
	if !s.IsSupported(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	next := BaseLang(lang)

	s.mu.Lock()
	previous := s.current
	if previous == next {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(ctx, previous, next)
	}
	return nil
}

// Resolve returns the request-scoped language carried by ctx, falling back
// to the session language.
func (s *Session) Resolve(ctx context.Context) string {
	if lang, ok := LanguageFromContext(ctx); ok {
		return lang
	}
	return s.Current()
}

// LanguageFunc is the request-scoped language of the session, for use by
// the HTTP stages.
func (s *Session) LanguageFunc() LanguageFunc {
	return func(req *http.Request) string {
		return s.Resolve(req.Context())
	}
}

// LanguageFunc resolves the display language of an outgoing request.
type LanguageFunc func(req *http.Request) string

// ContextLanguage reads the language set on the request context by WithLanguage.
func ContextLanguage(req *http.Request) string {
	lang, _ := LanguageFromContext(req.Context())
	return lang
}

type languageKey struct{}

// WithLanguage returns a context carrying lang for a single request.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, BaseLang(lang))
}

// LanguageFromContext returns the request language set by WithLanguage.
func LanguageFromContext(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(languageKey{}).(string)
	return lang, ok && lang != ""
}
