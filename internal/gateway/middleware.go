package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lafaom-mao/apilocale"
)

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	if id := RequestID(ctx); id != "" {
		return logger.WithField("request_id", id)
	}
	return logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestContext assigns a request id, resolves the request language and
// writes the access log.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		r.Header.Set(HeaderRequestID, id)
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(s.languageContext(r), requestIDKey{}, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		requestLogger(ctx, s.logger).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"lang":     s.session.Resolve(ctx),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// languageContext returns the request context carrying the language asked
// for by the client, if any. Otherwise the session language applies.
func (s *Server) languageContext(r *http.Request) context.Context {
	if lang, ok := s.requestLanguage(r); ok {
		return apilocale.WithLanguage(r.Context(), lang)
	}
	return r.Context()
}

// requestLanguage resolves, in order, the X-Lang header, the lang cookie and
// Accept-Language. Unsupported values are ignored.
func (s *Server) requestLanguage(r *http.Request) (string, bool) {
	if lang := r.Header.Get(HeaderLanguage); lang != "" && s.session.IsSupported(lang) {
		return apilocale.BaseLang(lang), true
	}
	if c, err := r.Cookie(CookieLanguage); err == nil && s.session.IsSupported(c.Value) {
		return apilocale.BaseLang(c.Value), true
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if lang := apilocale.MatchAcceptLanguage(header, s.session.Supported()); lang != "" {
			return lang, true
		}
	}
	return "", false
}
