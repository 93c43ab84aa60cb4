package questiongen

import (
	"strings"
	"testing"
)

func TestStructuralValidator(t *testing.T) {
	v := &StructuralValidator{}

	if err := v.Validate(QuestionDraft{Text: "What is osmosis?"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.Validate(QuestionDraft{Text: strings.Repeat("ж", 1000)}); err != nil {
		t.Errorf("1000 characters should pass: %v", err)
	}

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", " \n\t"},
		{"too long", strings.Repeat("a", 1001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(QuestionDraft{Text: tt.text})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Validator != "structural" {
				t.Errorf("validator = %q", err.Validator)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Validator: "structural", Message: "text is empty"}
	if got := err.Error(); got != `validator "structural": text is empty` {
		t.Errorf("Error() = %q", got)
	}
}
