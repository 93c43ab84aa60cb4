package questiongen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/edugen/internal/store"
)

// StructuralValidator checks that question text is present and fits the
// store's column limit.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(d QuestionDraft) *ValidationError {
	if strings.TrimSpace(d.Text) == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "text is empty",
		}
	}
	if utf8.RuneCountInString(d.Text) > store.MaxTextLength {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("text exceeds %d characters", store.MaxTextLength),
		}
	}
	return nil
}
