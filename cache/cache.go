// Package cache provides the translation cache tiers used by the
// translation client: a bounded in-memory tier and a persistent tier stored
// in a store.Store.
package cache

import (
	"context"
	"time"
)

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a translation in the cache.
	Set(ctx context.Context, key string, value string) error
}

// ExportableCache is a cache that can list its live entries.
type ExportableCache interface {
	TranslationCache
	Entries(ctx context.Context) (map[string]string, error)
}

type options struct {
	now func() time.Time
}

// Option configures a cache tier.
type Option func(*options)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
