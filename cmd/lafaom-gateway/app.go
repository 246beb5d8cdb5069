package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/cache"
	"github.com/lafaom-mao/apilocale/endpoint"
	"github.com/lafaom-mao/apilocale/internal/config"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/store"
)

// app holds the components built from the configuration.
type app struct {
	cfg          *config.Config
	logger       logrus.FieldLogger
	metrics      *metrics.Metrics
	store        store.Store
	translations *cache.PersistentCache
	client       *apilocale.Client
	health       func(ctx context.Context) error
	closers      []func() error
}

// newApp opens the store and builds the translation client. Close must be
// called once the app is no longer used.
func newApp(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, m *metrics.Metrics) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: m}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	ep, err := newEndpoint(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.translations = cache.NewPersistentCache(a.store, apilocale.TranslationPrefix, cfg.PersistentTTL())
	a.client = apilocale.NewClient(ep,
		apilocale.WithSourceLang(cfg.Backend.NativeLang),
		apilocale.WithMemoryCache(cache.NewMemoryCache(cfg.Translation.MemoryEntries, cfg.MemoryTTL())),
		apilocale.WithPersistentCache(a.translations),
		apilocale.WithChunkSize(cfg.Translation.ChunkSize),
		apilocale.WithConcurrency(cfg.Translation.Concurrency),
		apilocale.WithLogger(logger),
		apilocale.WithMetrics(m),
	)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Cache.Store {
	case "memory":
		a.store = store.NewMemoryStore(a.cfg.Cache.MemoryQuota)
	case "disk":
		disk, err := store.NewDiskStore(a.cfg.Cache.Folder)
		if err != nil {
			return fmt.Errorf("opening disk store: %w", err)
		}
		a.store = disk
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisConfig{
			URL:       a.cfg.Cache.RedisURL,
			Namespace: a.cfg.Cache.RedisNamespace,
		})
		if err != nil {
			return fmt.Errorf("opening redis store: %w", err)
		}
		a.store = rs
		a.health = rs.Ping
		a.closers = append(a.closers, rs.Close)
	default:
		return fmt.Errorf("unknown cache store: %s", a.cfg.Cache.Store)
	}

	a.logger.WithField("store", a.cfg.Cache.Store).Debug("store opened")
	return nil
}

// newEndpoint builds the configured translation endpoint, wrapped with
// retries and, when configured, a rate limit.
func newEndpoint(cfg *config.Config) (apilocale.Endpoint, error) {
	var ep apilocale.Endpoint

	switch cfg.Translation.Endpoint {
	case "lingva":
		ep = endpoint.NewLingva(endpoint.LingvaConfig{
			BaseURL: cfg.Translation.BaseURL,
			Timeout: cfg.Timeout(),
		})
	case "openai":
		ep = endpoint.NewOpenAI(endpoint.OpenAIConfig{
			APIKey:  cfg.Translation.APIKey,
			Model:   cfg.Translation.Model,
			BaseURL: cfg.Translation.BaseURL,
		})
	case "mock":
		// no network, no retries
		return endpoint.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown translation endpoint: %s", cfg.Translation.Endpoint)
	}

	retry := apilocale.DefaultRetryConfig()
	retry.MaxRetries = cfg.Translation.Retry.MaxRetries
	retry.BaseDelay = cfg.RetryBaseDelay()
	ep = apilocale.NewRetryableEndpoint(ep, retry)

	if rl := cfg.Translation.RateLimit; rl.RequestsPerMinute > 0 {
		ep = apilocale.NewRateLimitedEndpoint(ep, apilocale.RateLimitConfig{
			RequestsPerMinute: rl.RequestsPerMinute,
			BurstSize:         rl.Burst,
		})
	}

	return ep, nil
}

func (a *app) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
