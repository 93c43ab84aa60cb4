package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTextTooLong is returned when question or answer text exceeds
	// MaxTextLength characters.
	ErrTextTooLong = errors.New("text too long")
)

// MaxTextLength is the longest question or answer text the store accepts,
// counted in characters.
const MaxTextLength = 1000

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id/sequence > After
	Before int64     // id/sequence < Before
	From   time.Time // created >= From
	To     time.Time // created <= To

	// Purpose and RunID filter LLM events; other queries ignore them.
	Purpose string
	RunID   string
}

// Document is a stored text document questions are generated from.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a persisted assessment question with its answers in
// insertion order.
type Question struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"documentId"`
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	Answers    []Answer  `json:"answers"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Answer is a persisted answer option.
type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// DocumentRepo manages source documents.
type DocumentRepo interface {
	// Create stores a new document and returns it with its assigned ID.
	Create(ctx context.Context, title, language, content string) (*Document, error)

	// Get returns the document with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Document, error)

	// List returns documents newest first, without their content.
	List(ctx context.Context, opts QueryOpts) ([]Document, error)

	// Content returns only the text of a document, or ErrNotFound.
	Content(ctx context.Context, id int64) (string, error)
}

// QuestionRepo manages generated questions and their answers.
type QuestionRepo interface {
	// CreateQuestion persists a question for an existing document.
	// Returns ErrNotFound for an unknown document.
	CreateQuestion(ctx context.Context, documentID int64, questionType, text string) (*Question, error)

	// CreateAnswer persists an answer for an existing question.
	CreateAnswer(ctx context.Context, questionID int64, text string, isCorrect bool) (*Answer, error)

	Get(ctx context.Context, id int64) (*Question, error)
	List(ctx context.Context, opts QueryOpts) ([]Question, error)
	ListByDocument(ctx context.Context, documentID int64) ([]Question, error)
	ListByType(ctx context.Context, questionType string) ([]Question, error)

	// Delete removes a question and its answers. Returns ErrNotFound when
	// nothing was deleted.
	Delete(ctx context.Context, id int64) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	RunID        string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a recorded LLM request.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates token usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
