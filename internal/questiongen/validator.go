package questiongen

import "fmt"

// Validator checks a parsed draft before it is persisted.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for logs, e.g. "structural".
	Name() string

	// Validate returns nil if the draft may be persisted.
	Validate(d QuestionDraft) *ValidationError
}

// ValidationError describes why a draft was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
