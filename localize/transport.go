package localize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lafaom-mao/apilocale"
)

// Transport is an http.RoundTripper translating successful JSON responses
// of GET requests to the backend into the request language.
type Transport struct {
	next       http.RoundTripper
	translator *Translator
	host       string
	nativeLang string
	language   apilocale.LanguageFunc
	logger     logrus.FieldLogger
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithBackendHost restricts translation to requests for host. A host
// without a port matches any port.
func WithBackendHost(host string) TransportOption {
	return func(t *Transport) {
		t.host = strings.ToLower(host)
	}
}

// WithNativeLang sets the language the backend answers in (default "fr").
func WithNativeLang(lang string) TransportOption {
	return func(t *Transport) {
		t.nativeLang = lang
	}
}

// WithLanguageFunc sets how the request language is resolved.
func WithLanguageFunc(fn apilocale.LanguageFunc) TransportOption {
	return func(t *Transport) {
		t.language = fn
	}
}

func WithTransportLogger(logger logrus.FieldLogger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport wraps next. A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper, translator *Translator, opts ...TransportOption) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	t := &Transport{
		next:       next,
		translator: translator,
		nativeLang: apilocale.SourceLang,
		language:   apilocale.ContextLanguage,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithField("component", "localize-transport")
	return t
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || !t.matchHost(req) {
		return t.next.RoundTrip(req)
	}

	lang := t.language(req)
	if lang == "" || apilocale.SameLanguage(lang, t.nativeLang) {
		return t.next.RoundTrip(req)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK || !isJSON(resp.Header.Get("Content-Type")) {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	payload, ok := decodePayload(body)
	if !ok {
		t.logger.WithField("url", req.URL.String()).Debug("response is not a JSON object or array")
		setBody(resp, body)
		return resp, nil
	}

	translated := t.translator.TranslatePayload(req.Context(), payload, lang)
	out, err := encodePayload(translated)
	if err != nil {
		t.logger.WithError(err).WithField("url", req.URL.String()).Warn("re-encoding translated payload failed")
		setBody(resp, body)
		return resp, nil
	}

	setBody(resp, out)
	resp.Header.Set("Content-Language", lang)
	return resp, nil
}

func (t *Transport) matchHost(req *http.Request) bool {
	if t.host == "" {
		return true
	}
	if strings.Contains(t.host, ":") {
		return strings.EqualFold(req.URL.Host, t.host)
	}
	return strings.EqualFold(req.URL.Hostname(), t.host)
}

// isJSON accepts a missing content type, since some backends omit it.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "json")
}

// decodePayload decodes a single JSON object or array, keeping numbers as
// json.Number.
func decodePayload(body []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	switch payload.(type) {
	case []any, map[string]any:
		return payload, true
	}
	return nil, false
}

func encodePayload(payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func setBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}
