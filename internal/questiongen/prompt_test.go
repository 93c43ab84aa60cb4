package questiongen

import (
	"strings"
	"testing"
)

func testRequest() GenerationRequest {
	return GenerationRequest{
		QuestionCount:   4,
		DifficultyLevel: "Hard",
		QuestionTypes:   []string{"TRUE_FALSE", "MULTIPLE_CHOICE"},
		Language:        "German",
	}
}

func TestBuildPrompt_Contents(t *testing.T) {
	msg := BuildPrompt("Mitochondria produce ATP.", testRequest())

	checks := []string{
		"Generate 4 hard-level questions in German language",
		"QUESTION TYPES:\nTRUE_FALSE, MULTIPLE_CHOICE",
		"- MULTIPLE_CHOICE: each question must have 1-3 correct answers and 2-3 incorrect answers",
		"- TRUE_FALSE: each question must be a statement that is either true or false",
		`"type": "TRUE_FALSE or MULTIPLE_CHOICE"`,
		`"answers": [`,
		`{"text": "Answer option", "isCorrect": true/false}`,
		"Each question must include answers with correctness indicated.",
		"only the JSON array",
	}
	for _, want := range checks {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_RulesOnlyForRequestedTypes(t *testing.T) {
	msg := BuildPrompt("text", testRequest())
	for _, absent := range []string{"- FILL_IN_THE_BLANK:", "- ESSAY:", "- MATCHING:"} {
		if strings.Contains(msg, absent) {
			t.Errorf("prompt should not contain %q", absent)
		}
	}

	// Rules follow canonical order regardless of request order.
	mc := strings.Index(msg, "- MULTIPLE_CHOICE:")
	tf := strings.Index(msg, "- TRUE_FALSE:")
	if mc == -1 || tf == -1 || mc > tf {
		t.Errorf("rules out of order: mc=%d tf=%d", mc, tf)
	}
}

func TestBuildPrompt_UnknownTypeHasNoRule(t *testing.T) {
	req := testRequest()
	req.QuestionTypes = []string{"POP_QUIZ"}
	msg := BuildPrompt("text", req)
	if !strings.Contains(msg, "QUESTION TYPES:\nPOP_QUIZ") {
		t.Error("requested label should be listed verbatim")
	}
	if strings.Contains(msg, "- MULTIPLE_CHOICE:") {
		t.Error("no rule expected for an unknown label")
	}
}

func TestBuildPrompt_WithoutAnswers(t *testing.T) {
	req := testRequest()
	req.IncludeAnswers = boolPtr(false)
	msg := BuildPrompt("text", req)

	if strings.Contains(msg, `"answers"`) {
		t.Error("answers example should be omitted")
	}
	if !strings.Contains(msg, "Do not include answer options for any questions.") {
		t.Error("missing no-answers instruction")
	}
}

func TestBuildPrompt_ContentLast(t *testing.T) {
	content := "  Verbatim\n\ncontent  "
	msg := BuildPrompt(content, testRequest())
	if !strings.HasSuffix(msg, "EDUCATIONAL CONTENT:\n"+content) {
		t.Errorf("content should be appended last and verbatim, got tail %q", msg[len(msg)-40:])
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	req := GenerationRequest{
		QuestionCount: 7,
		QuestionTypes: []string{"ESSAY", "MATCHING", "ORDERING", "SHORT_ANSWER", "FILL_IN_THE_BLANK"},
	}
	a := BuildPrompt("same", req)
	for i := 0; i < 10; i++ {
		if b := BuildPrompt("same", req); b != a {
			t.Fatal("prompt is not deterministic")
		}
	}
	if !strings.Contains(a, "Generate 7 medium-level questions in English language") {
		t.Error("defaults not applied")
	}
}

func TestBuildReasoningPrompt(t *testing.T) {
	msg := BuildReasoningPrompt("Plate tectonics.", testRequest())

	checks := []string{
		"I need to generate exactly 4 questions",
		"- Difficulty level: hard",
		"- Language: German",
		"STEP-BY-STEP APPROACH:",
		"- MULTIPLE_CHOICE:",
		"- All questions must be in German language",
		`"type": "TRUE_FALSE|MULTIPLE_CHOICE"`,
		`"answers": [`,
		"CRITICAL: Return ONLY the JSON array",
	}
	for _, want := range checks {
		if !strings.Contains(msg, want) {
			t.Errorf("reasoning prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(msg, "EDUCATIONAL CONTENT TO ANALYZE:\nPlate tectonics.") {
		t.Error("content should be appended last")
	}

	req := testRequest()
	req.IncludeAnswers = boolPtr(false)
	msg = BuildReasoningPrompt("x", req)
	if strings.Contains(msg, `"answers"`) {
		t.Error("answers example should be omitted")
	}
}
