// Package pipeline composes the response cache and the response translation
// stages in front of the backend transport.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/httpcache"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/localize"
	"github.com/lafaom-mao/apilocale/store"
)

// Pipeline is an http.RoundTripper: cache stage, then translation stage,
// then the network. Cached payloads are already translated for the
// language they are keyed by.
type Pipeline struct {
	session *apilocale.Session
	cache   *httpcache.Transport
	logger  logrus.FieldLogger

	clearAllOnSwitch bool
}

type settings struct {
	backendHost      string
	nativeLang       string
	clearAllOnSwitch bool
	logger           logrus.FieldLogger
	metrics          *metrics.Metrics
	cacheOpts        []httpcache.Option
	localizeOpts     []localize.Option
}

// Option configures a Pipeline.
type Option func(*settings)

// WithBackendHost restricts translation to the backend host.
func WithBackendHost(host string) Option {
	return func(s *settings) {
		s.backendHost = host
	}
}

// WithNativeLang sets the backend language (default "fr").
func WithNativeLang(lang string) Option {
	return func(s *settings) {
		s.nativeLang = lang
	}
}

// WithClearAllOnSwitch clears every cached response on a language switch
// instead of only those of the previous language.
func WithClearAllOnSwitch() Option {
	return func(s *settings) {
		s.clearAllOnSwitch = true
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.cacheOpts = append(s.cacheOpts, httpcache.WithTTL(ttl))
	}
}

func WithExclusions(patterns []string) Option {
	return func(s *settings) {
		s.cacheOpts = append(s.cacheOpts, httpcache.WithExclusions(patterns))
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.cacheOpts = append(s.cacheOpts, httpcache.WithClock(now))
	}
}

func WithMaxDepth(n int) Option {
	return func(s *settings) {
		s.localizeOpts = append(s.localizeOpts, localize.WithMaxDepth(n))
	}
}

func WithWorkers(n int) Option {
	return func(s *settings) {
		s.localizeOpts = append(s.localizeOpts, localize.WithWorkers(n))
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// New builds the pipeline. Responses are cached in st, texts translated by
// client, and the active language read from session.
func New(next http.RoundTripper, client *apilocale.Client, st store.Store, session *apilocale.Session, opts ...Option) *Pipeline {
	cfg := settings{
		nativeLang: apilocale.SourceLang,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lang := session.LanguageFunc()

	translator := localize.NewTranslator(client, append([]localize.Option{
		localize.WithLogger(cfg.logger),
		localize.WithMetrics(cfg.metrics),
	}, cfg.localizeOpts...)...)

	localizer := localize.NewTransport(next, translator,
		localize.WithBackendHost(cfg.backendHost),
		localize.WithNativeLang(cfg.nativeLang),
		localize.WithLanguageFunc(lang),
		localize.WithTransportLogger(cfg.logger),
	)

	cache := httpcache.NewTransport(localizer, st, append([]httpcache.Option{
		httpcache.WithLanguageFunc(lang),
		httpcache.WithNativeLang(cfg.nativeLang),
		httpcache.WithLogger(cfg.logger),
		httpcache.WithMetrics(cfg.metrics),
	}, cfg.cacheOpts...)...)

	p := &Pipeline{
		session:          session,
		cache:            cache,
		logger:           cfg.logger.WithField("component", "pipeline"),
		clearAllOnSwitch: cfg.clearAllOnSwitch,
	}
	session.OnSwitch(p.invalidate)
	return p
}

func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	return p.cache.RoundTrip(req)
}

// Client returns an http.Client using the pipeline.
func (p *Pipeline) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: p, Timeout: timeout}
}

// Session returns the language session.
func (p *Pipeline) Session() *apilocale.Session {
	return p.session
}

// Cache returns the response cache stage.
func (p *Pipeline) Cache() *httpcache.Transport {
	return p.cache
}

// SwitchLanguage activates lang; cached responses are invalidated before it
// returns.
func (p *Pipeline) SwitchLanguage(ctx context.Context, lang string) error {
	return p.session.Switch(ctx, lang)
}

func (p *Pipeline) invalidate(ctx context.Context, previous, next string) {
	log := p.logger.WithFields(logrus.Fields{"from": previous, "to": next})

	var (
		n   int
		err error
	)
	if p.clearAllOnSwitch {
		n, err = p.cache.ClearAll(ctx)
	} else {
		n, err = p.cache.ClearLanguage(ctx, previous)
	}
	if err != nil {
		log.WithError(err).Warn("cache invalidation on language switch failed")
		return
	}
	log.WithField("removed", n).Info("language switched")
}
