// Package httpcache serves repeated GET requests from a persistent store,
// scoped by display language.
package httpcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/store"
)

// HeaderCache reports whether a response was served from the cache.
const HeaderCache = "X-Cache"

// DefaultExclusions are path fragments of translation assets and uploads.
var DefaultExclusions = []string{
	"/assets/i18n/",
	"/i18n/",
	"/upload",
	"/uploads/",
	"/attachments/",
	"/files/",
}

// Transport is an http.RoundTripper caching successful JSON GET responses.
type Transport struct {
	next        http.RoundTripper
	store       store.Store
	ttl         time.Duration
	version     string
	exclusions  []string
	language    apilocale.LanguageFunc
	fullURLKeys bool
	nativeLang  string
	now         func() time.Time
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures a Transport.
type Option func(*Transport)

// WithTTL sets how long an entry is served (default 5m).
func WithTTL(ttl time.Duration) Option {
	return func(t *Transport) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithExclusions replaces the excluded path fragments.
func WithExclusions(patterns []string) Option {
	return func(t *Transport) {
		t.exclusions = patterns
	}
}

// WithLanguageFunc sets how the request language is resolved.
func WithLanguageFunc(fn apilocale.LanguageFunc) Option {
	return func(t *Transport) {
		t.language = fn
	}
}

// WithFullURLKeys keys entries by absolute URL instead of path and query.
func WithFullURLKeys() Option {
	return func(t *Transport) {
		t.fullURLKeys = true
	}
}

// WithNativeLang sets the backend language. Hits in any other language carry
// a Content-Language header.
func WithNativeLang(lang string) Option {
	return func(t *Transport) {
		if lang != "" {
			t.nativeLang = apilocale.BaseLang(lang)
		}
	}
}

// WithVersion overrides the entry scheme version.
func WithVersion(v string) Option {
	return func(t *Transport) {
		t.version = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Transport) {
		t.tracer = tracer
	}
}

// NewTransport wraps next with a cache kept in s. A nil next uses
// http.DefaultTransport.
func NewTransport(next http.RoundTripper, s store.Store, opts ...Option) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	t := &Transport{
		next:       next,
		store:      s,
		ttl:        apilocale.DefaultResponseTTL,
		version:    apilocale.SchemeVersion,
		exclusions: DefaultExclusions,
		language:   apilocale.ContextLanguage,
		nativeLang: apilocale.SourceLang,
		now:        time.Now,
		logger:     logrus.StandardLogger(),
		tracer:     otel.Tracer(apilocale.TracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithField("component", "response-cache")
	return t
}

// Key returns the cache key of req for lang.
func (t *Transport) Key(req *http.Request, lang string) string {
	u := req.URL.RequestURI()
	if t.fullURLKeys {
		u = req.URL.String()
	}
	return apilocale.ResponseKey(lang, req.Method, u)
}

// Cacheable reports whether req may be read from or written to the cache.
func (t *Transport) Cacheable(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	for _, pattern := range t.exclusions {
		if pattern != "" && strings.Contains(req.URL.Path, pattern) {
			return false
		}
	}
	return true
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Cacheable(req) {
		t.metrics.ResponseCache("bypass")
		return t.next.RoundTrip(req)
	}

	lang := t.language(req)
	if lang == "" {
		lang = apilocale.SourceLang
	}
	key := t.Key(req, lang)

	ctx, span := t.tracer.Start(req.Context(), "httpcache.RoundTrip", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	log := t.logger.WithFields(logrus.Fields{"key": key, "lang": lang})

	if entry, ok := t.lookup(ctx, key, log); ok {
		t.metrics.ResponseCache("hit")
		span.SetAttributes(attribute.String("result", "hit"))
		log.Debug("cache hit")
		resp := hitResponse(req, entry.Data)
		if !apilocale.SameLanguage(lang, t.nativeLang) {
			resp.Header.Set("Content-Language", lang)
		}
		return resp, nil
	}

	t.metrics.ResponseCache("miss")
	span.SetAttributes(attribute.String("result", "miss"))
	log.Debug("cache miss")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set(HeaderCache, "MISS")

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(body)
	if !json.Valid(data) {
		log.Debug("response is not JSON, not cached")
		setBody(resp, body)
		return resp, nil
	}

	t.write(ctx, key, data, log)
	setBody(resp, data)
	return resp, nil
}

func (t *Transport) lookup(ctx context.Context, key string, log logrus.FieldLogger) (Entry, bool) {
	raw, err := t.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.metrics.StoreError("response_get")
			log.WithError(err).Warn("cache read failed")
		}
		return Entry{}, false
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		log.WithError(err).Warn("undecodable cache entry")
		return Entry{}, false
	}
	return entry, entry.Fresh(t.now(), t.ttl, t.version)
}

// write stores data under key. On failure, stale entries are swept and the
// write is not retried.
func (t *Transport) write(ctx context.Context, key string, data []byte, log logrus.FieldLogger) {
	raw := encodeEntry(Entry{
		Data:      data,
		Timestamp: t.now().UnixMilli(),
		Version:   t.version,
	})

	err := t.store.Set(ctx, key, string(raw))
	if err == nil {
		return
	}

	t.metrics.ResponseCache("store_error")
	t.metrics.StoreError("response_set")
	log.WithError(err).Warn("cache write failed, sweeping stale entries")

	removed, err := t.Sweep(ctx)
	if err != nil {
		log.WithError(err).Warn("cache sweep failed")
		return
	}
	log.WithField("removed", removed).Info("cache sweep done")
}

// Sweep deletes every response entry that is expired, from another scheme
// version, or undecodable.
func (t *Transport) Sweep(ctx context.Context) (int, error) {
	keys, err := t.store.Keys(ctx, apilocale.CachePrefix)
	if err != nil {
		return 0, err
	}

	now := t.now()
	removed := 0
	for _, key := range keys {
		raw, err := t.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err == nil {
			if entry, decErr := decodeEntry(raw); decErr == nil && entry.Fresh(now, t.ttl, t.version) {
				continue
			}
		}
		if err := t.store.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}

	t.metrics.Invalidated("sweep", removed)
	return removed, nil
}

// ClearAll deletes every cached response.
func (t *Transport) ClearAll(ctx context.Context) (int, error) {
	n, err := store.DeletePrefix(ctx, t.store, apilocale.CachePrefix)
	t.metrics.Invalidated("all", n)
	if err != nil {
		return n, &apilocale.CacheError{Message: "clear all failed", Key: apilocale.CachePrefix, Cause: err}
	}
	t.logger.WithField("removed", n).Info("response cache cleared")
	return n, nil
}

// ClearLanguage deletes every response cached for lang.
func (t *Transport) ClearLanguage(ctx context.Context, lang string) (int, error) {
	prefix := apilocale.LanguagePrefix(lang)
	n, err := store.DeletePrefix(ctx, t.store, prefix)
	t.metrics.Invalidated("language", n)
	if err != nil {
		return n, &apilocale.CacheError{Message: "clear language failed", Key: prefix, Cause: err}
	}
	t.logger.WithFields(logrus.Fields{"lang": lang, "removed": n}).Info("response cache cleared")
	return n, nil
}

func hitResponse(req *http.Request, data []byte) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set(HeaderCache, "HIT")

	resp := &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     h,
		Request:    req,
	}
	setBody(resp, data)
	return resp
}

func setBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}
