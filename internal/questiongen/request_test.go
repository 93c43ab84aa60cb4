package questiongen

import (
	"errors"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestGenerationRequest_Validate(t *testing.T) {
	valid := GenerationRequest{QuestionCount: 3, QuestionTypes: []string{"ESSAY"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		req  GenerationRequest
	}{
		{"zero count", GenerationRequest{QuestionTypes: []string{"ESSAY"}}},
		{"negative count", GenerationRequest{QuestionCount: -1, QuestionTypes: []string{"ESSAY"}}},
		{"no types", GenerationRequest{QuestionCount: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestGenerationRequest_Defaults(t *testing.T) {
	var r GenerationRequest
	if !r.AnswersIncluded() {
		t.Error("answers should default to included")
	}
	if r.LanguageOrDefault() != "English" {
		t.Errorf("language = %q", r.LanguageOrDefault())
	}
	if r.Difficulty() != "medium" {
		t.Errorf("difficulty = %q", r.Difficulty())
	}

	r = GenerationRequest{IncludeAnswers: boolPtr(false), Language: "Macedonian", DifficultyLevel: "HARD"}
	if r.AnswersIncluded() {
		t.Error("answers should be excluded")
	}
	if r.LanguageOrDefault() != "Macedonian" {
		t.Errorf("language = %q", r.LanguageOrDefault())
	}
	if r.Difficulty() != "hard" {
		t.Errorf("difficulty = %q", r.Difficulty())
	}
}

func TestFingerprint(t *testing.T) {
	base := GenerationRequest{
		QuestionCount:   5,
		DifficultyLevel: "easy",
		QuestionTypes:   []string{"MULTIPLE_CHOICE", "TRUE_FALSE"},
	}

	if Fingerprint(1, base) != Fingerprint(1, base) {
		t.Fatal("fingerprint is not stable")
	}

	same := base
	same.DifficultyLevel = "EASY"
	same.QuestionTypes = []string{"multiple_choice", "true_false"}
	same.Language = "English"
	same.IncludeAnswers = boolPtr(true)
	if Fingerprint(1, base) != Fingerprint(1, same) {
		t.Error("equivalent requests should share a fingerprint")
	}

	variants := map[string]func(r *GenerationRequest) int64{
		"document":   func(r *GenerationRequest) int64 { return 2 },
		"count":      func(r *GenerationRequest) int64 { r.QuestionCount = 6; return 1 },
		"difficulty": func(r *GenerationRequest) int64 { r.DifficultyLevel = "hard"; return 1 },
		"types":      func(r *GenerationRequest) int64 { r.QuestionTypes = []string{"TRUE_FALSE", "MULTIPLE_CHOICE"}; return 1 },
		"language":   func(r *GenerationRequest) int64 { r.Language = "German"; return 1 },
		"answers":    func(r *GenerationRequest) int64 { r.IncludeAnswers = boolPtr(false); return 1 },
		"type split": func(r *GenerationRequest) int64 { r.QuestionTypes = []string{"MULTIPLE_CHOICE,TRUE_FALSE"}; return 1 },
	}
	for name, mutate := range variants {
		r := base
		r.QuestionTypes = append([]string(nil), base.QuestionTypes...)
		doc := mutate(&r)
		if Fingerprint(doc, r) == Fingerprint(1, base) {
			t.Errorf("changing %s should change the fingerprint", name)
		}
	}
}
