// Package gateway serves the backend API through the translating cache
// pipeline, as a reverse proxy and optionally as a forward proxy.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/pipeline"
)

const (
	// HeaderLanguage selects the language of a single request.
	HeaderLanguage = "X-Lang"
	// CookieLanguage selects the language for a browser.
	CookieLanguage = "lang"
	// HeaderRequestID carries the request id to the backend and the client.
	HeaderRequestID = "X-Request-ID"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline    *pipeline.Pipeline
	session     *apilocale.Session
	backend     *url.URL
	adminPrefix string
	metrics     *metrics.Metrics
	health      func(ctx context.Context) error
	logger      logrus.FieldLogger
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithAdminPrefix sets the path prefix of the admin API (default "/_gateway").
func WithAdminPrefix(prefix string) Option {
	return func(s *Server) {
		s.adminPrefix = prefix
	}
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealthCheck adds a dependency check to the health endpoint.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server proxying to backend through p.
func New(p *pipeline.Pipeline, backend *url.URL, opts ...Option) *Server {
	s := &Server{
		pipeline:    p,
		session:     p.Session(),
		backend:     backend,
		adminPrefix: "/_gateway",
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "gateway")
	s.handler = s.requestContext(s.routes())
	return s
}

// Handler returns the reverse proxy and admin handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+s.adminPrefix+"/language", s.handleGetLanguage)
	mux.HandleFunc("PUT "+s.adminPrefix+"/language", s.handlePutLanguage)
	mux.HandleFunc("DELETE "+s.adminPrefix+"/cache", s.handleClearAll)
	mux.HandleFunc("DELETE "+s.adminPrefix+"/cache/{lang}", s.handleClearLanguage)
	mux.HandleFunc("GET "+s.adminPrefix+"/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.Handle("/", s.reverseProxy())

	return mux
}

func (s *Server) reverseProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(s.backend)
			r.SetXForwarded()
			// let the transport negotiate gzip and hand plain JSON to the stages
			r.Out.Header.Del("Accept-Encoding")
		},
		Transport: s.pipeline,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestLogger(r.Context(), s.logger).WithError(err).Warn("backend request failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
		},
	}
}

// ForwardProxy returns a forward proxy handler for clients configured to use
// the gateway as their HTTP proxy. Non-proxy requests go to Handler.
func (s *Server) ForwardProxy() http.Handler {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = s.logger
	proxy.NonproxyHandler = s.handler

	proxy.OnRequest().DoFunc(func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		r = r.WithContext(s.languageContext(r))
		ctx.RoundTripper = goproxy.RoundTripperFunc(func(req *http.Request, _ *goproxy.ProxyCtx) (*http.Response, error) {
			return s.pipeline.RoundTrip(req)
		})
		return r, nil
	})

	return proxy
}

// Run serves the gateway on listen, and the forward proxy on forwardListen
// when it is not empty, until ctx is canceled.
func (s *Server) Run(ctx context.Context, listen, forwardListen string) error {
	servers := []*http.Server{{
		Addr:              listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if forwardListen != "" {
		servers = append(servers, &http.Server{
			Addr:              forwardListen,
			Handler:           s.ForwardProxy(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			s.logger.WithField("addr", srv.Addr).Info("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
