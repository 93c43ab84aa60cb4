package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the transport to an external generative-language service.
// Implementations make exactly one call per Generate; they never retry.
type Provider interface {
	// Generate sends the request and returns the service's reply envelope.
	// When the request carries a Schema, the provider asks the service for
	// structured output and validates the extracted text against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the service.
type Request struct {
	// System is the system prompt. Empty means no system message is sent.
	System string

	// Messages is the conversation. Question generation sends a single
	// user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the reply is free text.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64

	// OmitTemperature suppresses the temperature parameter entirely.
	// Reasoning models reject it.
	OmitTemperature bool
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the service.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name for
	// OpenAI). Kebab-case, e.g. "question-set".
	Name string

	// Description is sent to the service to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the service's reply.
type Response struct {
	// Envelope is the reply envelope. Its shape depends on the provider;
	// use Text or ClassifyEnvelope to get at the generated text.
	Envelope json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Text returns the generated text carried by the envelope.
func (r *Response) Text() string {
	if r == nil {
		return ExtractText(nil)
	}
	return ExtractText(r.Envelope)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// flattenPrompt renders system and messages as one prompt string for
// completion-style endpoints that take no message list.
func flattenPrompt(req Request) string {
	parts := make([]string, 0, len(req.Messages)+1)
	if req.System != "" {
		parts = append(parts, req.System)
	}
	for _, m := range req.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
