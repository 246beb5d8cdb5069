package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lafaom-mao/apilocale"
)

// DefaultLingvaURL is the public Lingva instance.
const DefaultLingvaURL = "https://lingva.ml/api/v1"

// Lingva calls a Lingva-compatible HTTP API:
// GET {base}/{source}/{target}/{urlEncodedText} returning {"translation": "..."}.
type Lingva struct {
	http    *resty.Client
	baseURL string
}

// LingvaConfig holds configuration for the Lingva endpoint.
type LingvaConfig struct {
	BaseURL    string        // API root (default: DefaultLingvaURL)
	Timeout    time.Duration // Per-request timeout (default: 20s)
	HTTPClient *http.Client  // Optional client, e.g. with a custom transport
}

type lingvaResponse struct {
	Translation string `json:"translation"`
	Error       string `json:"error"`
}

// NewLingva creates a Lingva endpoint.
func NewLingva(cfg LingvaConfig) *Lingva {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = apilocale.DefaultRequestTimeout
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultLingvaURL
	}

	var client *resty.Client
	if cfg.HTTPClient != nil {
		client = resty.NewWithClient(cfg.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", apilocale.UserAgent())

	return &Lingva{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Translate translates a single text.
func (l *Lingva) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	u := l.baseURL + "/" + url.PathEscape(req.SourceLang) + "/" + url.PathEscape(req.TargetLang) + "/" + url.PathEscape(req.Text)

	r, err := l.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return "", &apilocale.EndpointError{
			Message:   "lingva request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}

	var resp lingvaResponse
	decodeErr := json.Unmarshal(r.Body(), &resp)

	if r.IsError() {
		msg := "lingva returned " + r.Status()
		if decodeErr == nil && resp.Error != "" {
			msg += ": " + resp.Error
		}
		return "", &apilocale.EndpointError{
			Message:    msg,
			StatusCode: r.StatusCode(),
			Retryable:  retryableStatus(r.StatusCode()),
		}
	}

	if decodeErr != nil {
		return "", &apilocale.EndpointError{
			Message: "invalid response from lingva",
			Cause:   decodeErr,
		}
	}
	if resp.Translation == "" {
		return "", &apilocale.EndpointError{Message: "lingva response has no translation"}
	}

	return resp.Translation, nil
}

var _ Endpoint = (*Lingva)(nil)
