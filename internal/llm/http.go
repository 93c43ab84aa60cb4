package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 2048

// HTTPProvider POSTs a JSON request to an arbitrary endpoint and returns
// the response body verbatim as the reply envelope. It covers endpoints
// none of the SDK providers speak.
type HTTPProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	model    string
	chat     bool
}

// NewHTTPProvider creates a raw HTTP provider. A nil client gets an
// instrumented default client.
func NewHTTPProvider(cfg HTTPConfig, client *http.Client) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http endpoint is required")
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	var chat bool
	switch cfg.APIStyle {
	case "chat":
		chat = true
	case "completion":
		chat = false
	case "":
		chat = strings.Contains(cfg.Endpoint, "openai.com")
	default:
		return nil, fmt.Errorf("unknown api style %q", cfg.APIStyle)
	}

	return &HTTPProvider{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		chat:     chat,
	}, nil
}

type httpChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type httpRequestBody struct {
	Model       string            `json:"model,omitempty"`
	Messages    []httpChatMessage `json:"messages,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

func (p *HTTPProvider) buildBody(req Request) httpRequestBody {
	body := httpRequestBody{
		Model:     p.model,
		MaxTokens: req.MaxTokens,
	}
	if !req.OmitTemperature {
		temp := req.Temperature
		body.Temperature = &temp
	}

	if !p.chat {
		body.Prompt = flattenPrompt(req)
		return body
	}

	if req.System != "" {
		body.Messages = append(body.Messages, httpChatMessage{Role: string(RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role == "" {
			role = RoleUser
		}
		body.Messages = append(body.Messages, httpChatMessage{Role: string(role), Content: m.Content})
	}
	return body
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(p.buildBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, truncateBody(body), nil)
	}

	out := &Response{
		Envelope:   json.RawMessage(body),
		StopReason: "end",
	}
	out.Usage, out.Model = readHTTPUsage(body, p.model)

	if req.Schema != nil {
		if err := validateResponse(req.Schema, ExtractText(out.Envelope)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (p *HTTPProvider) ModelID() string {
	return p.model
}

// readHTTPUsage picks up OpenAI-style usage and model fields when the
// endpoint reports them.
func readHTTPUsage(body []byte, fallbackModel string) (Usage, string) {
	var meta struct {
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return Usage{}, fallbackModel
	}
	model := meta.Model
	if model == "" {
		model = fallbackModel
	}
	return Usage{
		InputTokens:  meta.Usage.PromptTokens,
		OutputTokens: meta.Usage.CompletionTokens,
		TotalTokens:  meta.Usage.TotalTokens,
	}, model
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
