package endpoint

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Mock is an in-process endpoint for tests and offline runs.
type Mock struct {
	mu           sync.Mutex
	Translations map[string]string // source text -> translation
	Err          error             // returned for every call when set
	FailOn       map[string]error  // per-text failures
	lastRequest  *TranslateRequest
	calls        atomic.Int64
}

// NewMock creates a mock endpoint with a few French source texts.
func NewMock() *Mock {
	return &Mock{
		Translations: map[string]string{
			"Bonjour":                   "Hello",
			"Formation":                 "Training",
			"Bienvenue sur notre site.": "Welcome to our site.",
		},
	}
}

// Translate returns the configured translation, or "[target] text" for
// unknown texts.
func (m *Mock) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.calls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRequest = &req

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if err, ok := m.FailOn[req.Text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[req.Text]; ok {
		return translation, nil
	}
	return fmt.Sprintf("[%s] %s", req.TargetLang, req.Text), nil
}

// Set registers a translation.
func (m *Mock) Set(text, translation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Translations == nil {
		m.Translations = make(map[string]string)
	}
	m.Translations[text] = translation
}

// Calls returns the number of Translate calls.
func (m *Mock) Calls() int {
	return int(m.calls.Load())
}

// LastRequest returns the last request received, or nil.
func (m *Mock) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset clears the call count and last request.
func (m *Mock) Reset() {
	m.calls.Store(0)
	m.mu.Lock()
	m.lastRequest = nil
	m.mu.Unlock()
}

var _ Endpoint = (*Mock)(nil)
