package apilocale

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lafaom-mao/apilocale/internal/metrics"
)

// Endpoint is the interface for remote translation backends.
type Endpoint interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// EndpointFunc adapts a function to the Endpoint interface.
type EndpointFunc func(ctx context.Context, req TranslateRequest) (string, error)

func (f EndpointFunc) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	return f(ctx, req)
}

// TranslationCache is the interface for one translation cache tier.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// Client is the translation fetch client. It translates plain text from
// the source language, serving repeated texts from a memory tier and a
// persistent tier before calling the endpoint.
type Client struct {
	endpoint    Endpoint
	sourceLang  string
	memory      TranslationCache
	persistent  TranslationCache
	chunkSize   int
	concurrency int
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithSourceLang sets the source language (default "fr").
func WithSourceLang(lang string) ClientOption {
	return func(c *Client) {
		c.sourceLang = lang
	}
}

// WithMemoryCache sets the in-memory tier.
func WithMemoryCache(cache TranslationCache) ClientOption {
	return func(c *Client) {
		c.memory = cache
	}
}

// WithPersistentCache sets the persistent tier.
func WithPersistentCache(cache TranslationCache) ClientOption {
	return func(c *Client) {
		c.persistent = cache
	}
}

// WithChunkSize sets the rune count above which texts are split.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithConcurrency bounds concurrent endpoint calls per batch or chunked text.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a Client calling endpoint on cache misses.
func NewClient(endpoint Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		sourceLang:  SourceLang,
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultBatchConcurrency,
		logger:      logrus.StandardLogger(),
		tracer:      otel.Tracer(TracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.WithField("component", "translation-client")
	return c
}

// SourceLang returns the source language.
func (c *Client) SourceLang() string {
	return c.sourceLang
}

// IsSourceLang reports whether targetLang needs no translation.
func (c *Client) IsSourceLang(targetLang string) bool {
	return SameLanguage(targetLang, c.sourceLang)
}

// Translate returns text translated to targetLang. Empty text and the source
// language are returned unchanged without any I/O. On failure the original
// text is returned.
func (c *Client) Translate(ctx context.Context, text, targetLang string) string {
	if strings.TrimSpace(text) == "" || c.IsSourceLang(targetLang) {
		return text
	}

	ctx, span := c.tracer.Start(ctx, "apilocale.Translate", trace.WithAttributes(
		attribute.String("lang", targetLang),
		attribute.Int("runes", utf8.RuneCountInString(text)),
	))
	defer span.End()

	key := CacheKey(targetLang, text)
	if value, source, ok := c.lookup(ctx, key); ok {
		c.metrics.Translation(string(source))
		span.SetAttributes(attribute.String("source", string(source)))
		return value
	}

	return c.fetchAndStore(ctx, text, targetLang)
}

// TranslateBatch translates texts to targetLang. The result has the same
// length and order as texts; empty entries and failures keep the input value.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, targetLang string) []string {
	out := make([]string, len(texts))
	copy(out, texts)

	if len(texts) == 0 || c.IsSourceLang(targetLang) {
		return out
	}

	ctx, span := c.tracer.Start(ctx, "apilocale.TranslateBatch", trace.WithAttributes(
		attribute.String("lang", targetLang),
		attribute.Int("texts", len(texts)),
	))
	defer span.End()

	positions := make(map[string][]int)
	nonEmpty := make([]string, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		positions[text] = append(positions[text], i)
		nonEmpty = append(nonEmpty, text)
	}
	if len(nonEmpty) == 0 {
		return out
	}

	hits, misses := c.parallelLookup(ctx, nonEmpty, targetLang)
	for text, value := range hits {
		for _, i := range positions[text] {
			out[i] = value
		}
	}

	span.SetAttributes(attribute.Int("hits", len(hits)), attribute.Int("misses", len(misses)))
	if len(misses) == 0 {
		return out
	}

	fetched := c.fetchAll(ctx, misses, targetLang)
	for j, text := range misses {
		for _, i := range positions[text] {
			out[i] = fetched[j]
		}
	}

	return out
}

// lookup checks the memory tier, then the persistent tier, promoting
// persistent hits into memory.
func (c *Client) lookup(ctx context.Context, key string) (string, TranslationSource, bool) {
	if c.memory != nil {
		if value, ok := c.memory.Get(ctx, key); ok {
			return value, SourceMemory, true
		}
	}

	if c.persistent != nil {
		if value, ok := c.persistent.Get(ctx, key); ok {
			if c.memory != nil {
				if err := c.memory.Set(ctx, key, value); err != nil {
					c.logger.WithError(err).Debug("promote to memory tier failed")
				}
			}
			return value, SourcePersistent, true
		}
	}

	return "", "", false
}

// fetchAndStore calls the endpoint and writes a successful result to both
// tiers. Failures fall back to text.
func (c *Client) fetchAndStore(ctx context.Context, text, targetLang string) string {
	translated, err := c.fetch(ctx, text, targetLang)
	if err != nil {
		c.metrics.Translation(string(SourceFallback))
		trace.SpanFromContext(ctx).RecordError(err)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"lang":      targetLang,
			"runes":     utf8.RuneCountInString(text),
			"text_hash": HashText(text)[:12],
		}).Warn("translation failed, keeping original text")
		return text
	}

	c.metrics.Translation(string(SourceEndpoint))
	c.store(ctx, CacheKey(targetLang, text), translated)
	return translated
}

// fetch translates text through the endpoint, chunking long inputs.
func (c *Client) fetch(ctx context.Context, text, targetLang string) (string, error) {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return c.call(ctx, text, targetLang)
	}

	chunks := SplitChunks(text, c.chunkSize)
	results := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			translated, err := c.call(gctx, chunk, targetLang)
			if err != nil {
				return &TranslationError{Message: "chunk translation failed", Lang: targetLang, Cause: err}
			}
			results[i] = translated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(results, " "), nil
}

func (c *Client) call(ctx context.Context, text, targetLang string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "apilocale.endpoint")
	defer span.End()

	start := time.Now()
	translated, err := c.endpoint.Translate(ctx, TranslateRequest{
		Text:       text,
		SourceLang: c.sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		c.metrics.EndpointCall("error", time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	c.metrics.EndpointCall("ok", time.Since(start))

	if strings.TrimSpace(translated) == "" {
		return "", &EndpointError{Message: "empty translation"}
	}
	return translated, nil
}

func (c *Client) store(ctx context.Context, key, value string) {
	if c.memory != nil {
		if err := c.memory.Set(ctx, key, value); err != nil {
			c.logger.WithError(err).Debug("memory tier write failed")
		}
	}
	if c.persistent != nil {
		if err := c.persistent.Set(ctx, key, value); err != nil {
			c.metrics.StoreError("translation_set")
			c.logger.WithError(err).Warn("persistent tier write failed")
		}
	}
}
