package llm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/edugen/internal/store"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `[{"text":"Q1"}]`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Envelope: json.RawMessage(`{"generated_text":"[]"}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text() != `[{"text":"Q1"}]` {
		t.Fatalf("expected chat-wrapped text, got %s", resp1.Text())
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Envelope) != `{"generated_text":"[]"}` {
		t.Fatalf("expected envelope passed through, got %s", resp2.Envelope)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "[]"})

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_GateHonorsContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "[]"})
	mock.Gate = make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable after deadline, got: %v", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if id := RunIDFrom(ctx); id != "" {
		t.Fatalf("expected empty run id, got %q", id)
	}

	ctx = WithPurpose(ctx, "question-gen")
	ctx = WithRunID(ctx, "run-1")
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
	if id := RunIDFrom(ctx); id != "run-1" {
		t.Fatalf("expected 'run-1', got %q", id)
	}
}

// recordingEventRepo captures appended events. Methods other than
// AppendLLMRequest are not used by the decorator.
type recordingEventRepo struct {
	store.EventRepo

	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestWithLogging_RecordsEvent(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Text: `[]`, Usage: Usage{InputTokens: 3, OutputTokens: 4}})
	p := WithLogging(mock, "mock", repo, nil)

	ctx := WithRunID(WithPurpose(context.Background(), "question-gen"), "run-42")
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "go"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Purpose != "question-gen" || ev.RunID != "run-42" {
		t.Fatalf("unexpected purpose/run id: %q/%q", ev.Purpose, ev.RunID)
	}
	if !ev.Success || ev.InputTokens != 3 || ev.OutputTokens != 4 {
		t.Fatalf("unexpected event data: %+v", ev)
	}
	if ev.RequestBody != "[system]\nsys\n\n[user]\ngo\n\n" {
		t.Fatalf("unexpected request body %q", ev.RequestBody)
	}
	if ev.ResponseBody == "" {
		t.Fatal("expected response envelope to be recorded")
	}
}

func TestWithLogging_FailureStillReturnsError(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	p := WithLogging(mock, "mock", repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got: %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success {
		t.Fatalf("expected one failed event, got %+v", repo.events)
	}
}

func TestWithLogging_RecordsTimedOutCall(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	mock := NewMockProvider(MockResponse{Text: "[]"})
	mock.Gate = make(chan struct{})
	p := WithLogging(mock, "mock", st.EventRepo(), nil)

	ctx, cancel := context.WithTimeout(WithPurpose(context.Background(), "question-gen"), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected deadline error")
	}

	events, err := st.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected the timed-out call to be recorded, got %d events", len(events))
	}
	if events[0].Success || events[0].ErrorMessage == "" {
		t.Fatalf("expected a failed event with an error message, got %+v", events[0])
	}
}

func TestWithTimeout_BoundsCall(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "[]"})
	mock.Gate = make(chan struct{})
	p := WithTimeout(mock, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout decorator did not bound the call")
	}

	if WithTimeout(mock, 0) != Provider(mock) {
		t.Fatal("expected zero timeout to return the provider unchanged")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "carrier-pigeon"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLookupCost(t *testing.T) {
	if LookupCost("gpt-4o-mini") == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	c := LookupCost("gpt-4o-mini-2024-07-18")
	if c == nil || c.InputPerMTok != 0.15 {
		t.Fatalf("expected dated snapshot to use gpt-4o-mini pricing, got %+v", c)
	}
	if LookupCost("mystery-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
	if got := (ModelCost{InputPerMTok: 1, OutputPerMTok: 2}).Cost(1_000_000, 500_000); got != 2 {
		t.Fatalf("expected cost 2, got %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "http without endpoint",
			cfg:     Config{Provider: "http"},
			wantErr: true,
		},
		{
			name:    "http with bad style",
			cfg:     Config{Provider: "http", HTTP: HTTPConfig{Endpoint: "http://x", APIStyle: "grpc"}},
			wantErr: true,
		},
		{
			name:    "http completion style",
			cfg:     Config{Provider: "http", HTTP: HTTPConfig{Endpoint: "http://x", APIStyle: "completion"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	base := DefaultConfig()
	if _, ok := DiscoverConfig(base); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, ok := DiscoverConfig(base)
	if !ok || cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("expected gemini discovered, got %+v", cfg)
	}
	if cfg.ModelName() != "gemini-flash" {
		t.Fatalf("expected default gemini model, got %q", cfg.ModelName())
	}
}
