package main

import (
	"context"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/internal/gateway"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/pipeline"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		listen       string
		backend      string
		forwardProxy bool
		storeKind    string
		endpointKind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the translating gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("listen") {
				c.cfg.Server.Listen = listen
			}
			if flags.Changed("backend") {
				c.cfg.Backend.URL = backend
			}
			if flags.Changed("forward-proxy") {
				c.cfg.Server.ForwardProxy = forwardProxy
			}
			if flags.Changed("store") {
				c.cfg.Cache.Store = storeKind
			}
			if flags.Changed("endpoint") {
				c.cfg.Translation.Endpoint = endpointKind
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Gateway listen address")
	cmd.Flags().StringVar(&backend, "backend", "", "Backend API base URL")
	cmd.Flags().BoolVar(&forwardProxy, "forward-proxy", false, "Also serve a forward proxy on server.forward_listen")
	cmd.Flags().StringVar(&storeKind, "store", "", "Cache store (memory, disk, redis)")
	cmd.Flags().StringVar(&endpointKind, "endpoint", "", "Translation endpoint (lingva, openai, mock)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg

	if cfg.Tracing.Enabled {
		shutdown, err := setupTracing(c.stderr)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	m := metrics.New()
	a, err := newApp(ctx, cfg, c.logger, m)
	if err != nil {
		return err
	}
	defer a.Close()

	backendURL, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return err
	}

	session := apilocale.NewSession(cfg.Languages.Default, cfg.Languages.Supported)

	opts := []pipeline.Option{
		pipeline.WithBackendHost(cfg.BackendHost()),
		pipeline.WithNativeLang(cfg.Backend.NativeLang),
		pipeline.WithCacheTTL(cfg.CacheTTL()),
		pipeline.WithMaxDepth(cfg.Translation.MaxDepth),
		pipeline.WithWorkers(cfg.Translation.Workers),
		pipeline.WithLogger(c.logger),
		pipeline.WithMetrics(m),
	}
	if len(cfg.Cache.Exclusions) > 0 {
		opts = append(opts, pipeline.WithExclusions(cfg.Cache.Exclusions))
	}
	if cfg.Cache.ClearAllOnSwitch {
		opts = append(opts, pipeline.WithClearAllOnSwitch())
	}
	p := pipeline.New(http.DefaultTransport, a.client, a.store, session, opts...)

	gwOpts := []gateway.Option{
		gateway.WithAdminPrefix(cfg.Server.AdminPrefix),
		gateway.WithMetrics(m),
		gateway.WithLogger(c.logger),
	}
	if a.health != nil {
		gwOpts = append(gwOpts, gateway.WithHealthCheck(a.health))
	}
	gw := gateway.New(p, backendURL, gwOpts...)

	forwardListen := ""
	if cfg.Server.ForwardProxy {
		forwardListen = cfg.Server.ForwardListen
	}

	c.logger.WithFields(logrus.Fields{
		"version":  apilocale.FullVersion(),
		"backend":  backendURL.Redacted(),
		"store":    cfg.Cache.Store,
		"endpoint": cfg.Translation.Endpoint,
		"language": session.Current(),
	}).Info("starting gateway")

	return gw.Run(ctx, cfg.Server.Listen, forwardListen)
}
