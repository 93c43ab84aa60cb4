package questiongen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned for generation arguments that can never
// produce questions.
var ErrInvalidRequest = errors.New("invalid generation request")

const (
	DefaultLanguage   = "English"
	DefaultDifficulty = "medium"
)

// GenerationRequest holds the caller-supplied parameters of one run.
type GenerationRequest struct {
	// QuestionCount is how many questions to ask the model for.
	QuestionCount int `json:"questionCount" binding:"required,gt=0"`

	// DifficultyLevel is a free-text label such as "easy" or "hard".
	DifficultyLevel string `json:"difficultyLevel"`

	// QuestionTypes are free-text type labels, in the order given.
	QuestionTypes []string `json:"questionTypes" binding:"required,min=1"`

	// IncludeAnswers asks for answer options. Nil means true.
	IncludeAnswers *bool `json:"includeAnswers,omitempty"`

	// Language of the generated questions. Empty means English.
	Language string `json:"language"`
}

// Validate rejects requests that cannot produce any question.
func (r GenerationRequest) Validate() error {
	if r.QuestionCount <= 0 {
		return fmt.Errorf("%w: questionCount must be positive, got %d", ErrInvalidRequest, r.QuestionCount)
	}
	if len(r.QuestionTypes) == 0 {
		return fmt.Errorf("%w: questionTypes must not be empty", ErrInvalidRequest)
	}
	return nil
}

// AnswersIncluded reports whether answer options are requested.
func (r GenerationRequest) AnswersIncluded() bool {
	return r.IncludeAnswers == nil || *r.IncludeAnswers
}

// LanguageOrDefault returns the requested language, or English.
func (r GenerationRequest) LanguageOrDefault() string {
	if l := strings.TrimSpace(r.Language); l != "" {
		return l
	}
	return DefaultLanguage
}

// Difficulty returns the lower-cased difficulty label, or "medium".
func (r GenerationRequest) Difficulty() string {
	if d := strings.TrimSpace(r.DifficultyLevel); d != "" {
		return strings.ToLower(d)
	}
	return DefaultDifficulty
}

// Fingerprint identifies a logical request for deduplication. It depends
// only on the document and the request fields that change the output.
func Fingerprint(documentID int64, req GenerationRequest) string {
	types := make([]string, len(req.QuestionTypes))
	for i, t := range req.QuestionTypes {
		types[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	// JSON keeps field and list boundaries unambiguous.
	canonical, _ := json.Marshal(struct {
		DocumentID int64    `json:"d"`
		Count      int      `json:"c"`
		Types      []string `json:"t"`
		Difficulty string   `json:"l"`
		Language   string   `json:"g"`
		Answers    bool     `json:"a"`
	}{
		DocumentID: documentID,
		Count:      req.QuestionCount,
		Types:      types,
		Difficulty: req.Difficulty(),
		Language:   strings.ToLower(req.LanguageOrDefault()),
		Answers:    req.AnswersIncluded(),
	})
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
