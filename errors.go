package apilocale

import "fmt"

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Lang    string
	Cause   error
}

func (e *TranslationError) Error() string {
	prefix := e.Message
	if e.Lang != "" {
		prefix = fmt.Sprintf("%s (%s)", e.Message, e.Lang)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Cause)
	}
	return prefix
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// EndpointError indicates a translation endpoint failure (HTTP error, rate limit, bad payload).
type EndpointError struct {
	Message    string
	StatusCode int
	Cause      error
	Retryable  bool // Whether the operation can be retried
}

func (e *EndpointError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("endpoint error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("endpoint error: %s", msg)
}

func (e *EndpointError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache or storage operation failure.
type CacheError struct {
	Message string
	Key     string
	Cause   error
}

func (e *CacheError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q", e.Message, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", msg)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates an endpoint returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
