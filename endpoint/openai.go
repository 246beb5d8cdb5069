package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/lafaom-mao/apilocale"
)

// OpenAI implements Endpoint with a chat completion model.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI endpoint.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.2)
	BaseURL     string  // Custom base URL, e.g. an OpenAI-compatible gateway
}

// NewOpenAI creates a new OpenAI endpoint.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates one text.
func (p *OpenAI) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	user, _ := json.Marshal(map[string]string{"text": req.Text})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: string(user)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", &apilocale.EndpointError{
			Message:    "OpenAI API call failed",
			StatusCode: statusOf(err),
			Cause:      err,
			Retryable:  isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &apilocale.EndpointError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAI) buildSystemPrompt(req TranslateRequest) string {
	source := apilocale.GetLanguageName(req.SourceLang)
	target := apilocale.GetLanguageName(req.TargetLang)

	return fmt.Sprintf(`# Role
You translate website content for a vocational training organization from %s to %s.

# Rules
- Keep names of people, organizations, cities and acronyms unchanged.
- Do NOT translate URLs, email addresses, HTML tags or placeholders such as {name} or %%s.
- Preserve leading and trailing whitespace and line breaks.
- Use natural, idiomatic %s.

# Format
The user message is a JSON object {"text": "..."}.
Return a valid JSON object {"translation": "..."} and nothing else.`, source, target, target)
}

// parseResponse accepts {"translation": "..."}, falls back to the first
// element of {"translations": [...]} and finally to any string value.
func parseResponse(content string) (string, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return "", &apilocale.EndpointError{
			Message: "invalid response format from OpenAI",
			Cause:   err,
		}
	}

	if s, ok := obj["translation"].(string); ok && s != "" {
		return s, nil
	}

	if arr, ok := obj["translations"].([]interface{}); ok {
		if len(arr) != 1 {
			return "", &apilocale.CountMismatchError{Expected: 1, Got: len(arr)}
		}
		if s, ok := arr[0].(string); ok {
			return s, nil
		}
	}

	for _, v := range obj {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}

	return "", &apilocale.EndpointError{Message: "OpenAI response has no translation"}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isRetryableError(err error) bool {
	if code := statusOf(err); code != 0 {
		return retryableStatus(code)
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var _ Endpoint = (*OpenAI)(nil)
