package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/edugen/internal/content"
	"github.com/abhisek/edugen/internal/llm"
	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	store    *store.Store
	provider *llm.MockProvider
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "edugen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := prometheus.NewRegistry()
	provider := llm.NewMockProvider()
	svc := questiongen.New(questiongen.Deps{
		Provider:  provider,
		Questions: s.QuestionRepo(),
		Content:   content.NewStoreProvider(s.DocumentRepo(), content.Options{Clean: true}),
		Metrics:   questiongen.NewMetrics(reg),
	}, questiongen.DefaultConfig())

	srv := New(Deps{
		Documents: s.DocumentRepo(),
		Questions: s.QuestionRepo(),
		Generator: svc,
		Gatherer:  reg,
	}, Options{CORSOrigins: []string{"http://localhost:3000"}})

	return &testEnv{store: s, provider: provider, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createDocument(t *testing.T) store.Document {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/documents", map[string]string{
		"title":   "Volcanoes",
		"content": "Magma rises\nthrough the crust.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc store.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t)
	assert.Equal(t, "Volcanoes", doc.Title)
	assert.Equal(t, "English", doc.Language)

	w := env.do(t, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]store.Document](t, w)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Content)

	w = env.do(t, http.MethodGet, "/api/documents/"+itoa(doc.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Magma rises\nthrough the crust.", decode[store.Document](t, w).Content)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/documents/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/documents/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/documents", map[string]string{"title": "no content"}).Code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/documents", "/api/questions", "/api/questions/document/1", "/api/questions/type/ESSAY"} {
		w := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()), path)
	}
}

func TestGenerateAndQuery(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t)
	env.provider.AddResponse(llm.MockResponse{Text: "Here you go:\n" + `[
		{"text": "What rises through the crust?", "type": "MULTIPLE_CHOICE", "answers": [
			{"text": "Magma", "isCorrect": true},
			{"text": "Water", "isCorrect": false}
		]},
		{"text": "Magma is solid.", "type": "true_false", "answers": [{"text": "False", "isCorrect": true}]}
	]`})

	w := env.do(t, http.MethodPost, "/api/questions/generate?documentId="+itoa(doc.ID), map[string]any{
		"questionCount":   2,
		"difficultyLevel": "easy",
		"questionTypes":   []string{"MULTIPLE_CHOICE", "TRUE_FALSE"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	questions := decode[[]store.Question](t, w)
	require.Len(t, questions, 2)
	assert.Equal(t, "TRUE_FALSE", questions[1].Type)
	require.Len(t, questions[0].Answers, 2)
	assert.True(t, questions[0].Answers[0].IsCorrect)

	require.Equal(t, 1, env.provider.CallCount())
	assert.Contains(t, env.provider.Calls[0].Messages[0].Content, "Magma rises through the crust.")

	w = env.do(t, http.MethodGet, "/api/questions/document/"+itoa(doc.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.Question](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/questions/type/true_false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	byType := decode[[]store.Question](t, w)
	require.Len(t, byType, 1)
	assert.Equal(t, "Magma is solid.", byType[0].Text)

	w = env.do(t, http.MethodGet, "/api/questions?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.Question](t, w), 1)

	id := itoa(questions[0].ID)
	w = env.do(t, http.MethodGet, "/api/questions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What rises through the crust?", decode[store.Question](t, w).Text)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/questions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/questions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/questions/"+id, nil).Code)

	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `edugen_generation_runs_total{result="completed"} 1`)
	assert.Contains(t, w.Body.String(), "edugen_questions_persisted_total 2")
}

func TestGenerate_SoftFailures(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t)
	env.provider.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	env.provider.AddResponse(llm.MockResponse{Text: "no JSON in sight"})

	body := map[string]any{"questionCount": 1, "questionTypes": []string{"ESSAY"}}
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/questions/generate?documentId="+itoa(doc.ID), body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	}
}

func TestGenerate_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t)
	path := "/api/questions/generate?documentId=" + itoa(doc.ID)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing document id", "/api/questions/generate", map[string]any{"questionCount": 1, "questionTypes": []string{"ESSAY"}}, http.StatusBadRequest},
		{"bad document id", "/api/questions/generate?documentId=x", map[string]any{"questionCount": 1, "questionTypes": []string{"ESSAY"}}, http.StatusBadRequest},
		{"unknown document", "/api/questions/generate?documentId=999", map[string]any{"questionCount": 1, "questionTypes": []string{"ESSAY"}}, http.StatusNotFound},
		{"zero count", path, map[string]any{"questionCount": 0, "questionTypes": []string{"ESSAY"}}, http.StatusBadRequest},
		{"no types", path, map[string]any{"questionCount": 2}, http.StatusBadRequest},
		{"empty types", path, map[string]any{"questionCount": 2, "questionTypes": []string{}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 0, env.provider.CallCount())
}

func TestQuestionsByUnknownType(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/questions/type/POP_QUIZ", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBadQuery(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/questions?limit=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/documents?after=x", nil).Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, int64, questiongen.GenerationRequest) ([]store.Question, error) {
	return nil, errors.New("boom")
}

func TestGenerate_InternalError(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "edugen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	doc, err := s.DocumentRepo().Create(context.Background(), "t", "", "c")
	require.NoError(t, err)

	srv := New(Deps{Documents: s.DocumentRepo(), Questions: s.QuestionRepo(), Generator: failingGenerator{}}, Options{})
	body := strings.NewReader(`{"questionCount": 1, "questionTypes": ["ESSAY"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/questions/generate?documentId="+itoa(doc.ID), body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunShutsDown(t *testing.T) {
	srv := New(Deps{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
