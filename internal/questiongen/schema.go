package questiongen

import "github.com/abhisek/edugen/internal/llm"

// QuestionSetSchema is the structured-output schema for a batch of
// questions. Structured output must be rooted at an object, so the array
// sits under "questions".
var QuestionSetSchema = &llm.Schema{
	Name:        "question-set",
	Description: "A batch of assessment questions generated from a document",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"type": map[string]any{
							"type":        "string",
							"enum":        typeEnum(),
							"description": "The kind of question",
						},
						"answers": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"text": map[string]any{
										"type":        "string",
										"description": "The answer option",
									},
									"isCorrect": map[string]any{
										"type":        "boolean",
										"description": "Whether this option is correct",
									},
								},
								"required":             []any{"text", "isCorrect"},
								"additionalProperties": false,
							},
							"description": "Answer options. Empty when answers were not requested.",
						},
					},
					"required":             []any{"text", "type", "answers"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

func typeEnum() []any {
	out := make([]any, len(AllTypes))
	for i, t := range AllTypes {
		out[i] = string(t)
	}
	return out
}
