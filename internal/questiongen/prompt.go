package questiongen

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder stands in for document text that could not be loaded.
const DefaultPlaceholder = "Document content unavailable."

const systemPrompt = "You are an educational question generator that creates precise, well-formatted JSON output."

// typeRules holds the instruction given to the model for each type.
var typeRules = map[QuestionType]string{
	MultipleChoice: "each question must have 1-3 correct answers and 2-3 incorrect answers",
	TrueFalse:      "each question must be a statement that is either true or false, with exactly one answer marked accordingly",
	FillInTheBlank: "present a sentence with a blank space, and provide the correct answer(s) to fill in",
	ShortAnswer:    "each question must be answerable in one or two sentences, with the expected answer marked correct",
	Matching:       "list the items to pair in the question text, and give every correct pair as a correct answer in the form \"item - match\"",
	Ordering:       "list the steps or events to arrange in the question text, and give the correct sequence as a single correct answer",
	Essay:          "ask an open question that needs an extended response, and give the key points of a good answer as correct answers",
}

// BuildPrompt renders the instruction block for a standard chat model.
// The output depends only on its arguments.
func BuildPrompt(content string, req GenerationRequest) string {
	var b strings.Builder

	b.WriteString("You are an expert in educational content creation, specializing in generating assessment questions.\n\n")

	b.WriteString("TASK:\n")
	fmt.Fprintf(&b, "Generate %d %s-level questions in %s language based on the educational content below.\n\n",
		req.QuestionCount, req.Difficulty(), req.LanguageOrDefault())

	b.WriteString("QUESTION TYPES:\n")
	b.WriteString(strings.Join(req.QuestionTypes, ", "))
	b.WriteString("\n\n")

	b.WriteString("RULES FOR QUESTION TYPES:\n")
	b.WriteString(buildRules(req.QuestionTypes))
	b.WriteString("\n")

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("Return ONLY a valid JSON array with this structure:\n")
	b.WriteString(outputExample(strings.Join(req.QuestionTypes, " or "), req.AnswersIncluded()))
	b.WriteString("\n")

	if req.AnswersIncluded() {
		b.WriteString("Each question must include answers with correctness indicated.\n\n")
	} else {
		b.WriteString("Do not include answer options for any questions.\n\n")
	}

	b.WriteString("No explanations or additional text - only the JSON array.\n\n")

	b.WriteString("EDUCATIONAL CONTENT:\n")
	b.WriteString(content)

	return b.String()
}

// BuildReasoningPrompt renders the step-by-step variant sent to reasoning
// models, which get no system message.
func BuildReasoningPrompt(content string, req GenerationRequest) string {
	var b strings.Builder

	b.WriteString("I am an expert educational question generator. I need to create high-quality assessment questions based on educational content.\n\n")

	b.WriteString("TASK ANALYSIS:\n")
	fmt.Fprintf(&b, "- I need to generate exactly %d questions\n", req.QuestionCount)
	fmt.Fprintf(&b, "- Difficulty level: %s\n", req.Difficulty())
	fmt.Fprintf(&b, "- Language: %s\n", req.LanguageOrDefault())
	fmt.Fprintf(&b, "- Question types to create: %s\n\n", strings.Join(req.QuestionTypes, ", "))

	b.WriteString("STEP-BY-STEP APPROACH:\n")
	b.WriteString("1. First, I will carefully analyze the educational content to identify key concepts, learning objectives, and important facts\n")
	b.WriteString("2. Then, I will determine which concepts are most suitable for each question type requested\n")
	fmt.Fprintf(&b, "3. For each question, I will ensure it tests understanding at the %s difficulty level\n", req.Difficulty())
	b.WriteString("4. I will create questions that are pedagogically sound, clear, and unambiguous\n")
	b.WriteString("5. Finally, I will format everything as valid JSON\n\n")

	b.WriteString("QUESTION TYPE REQUIREMENTS:\n")
	b.WriteString(buildRules(req.QuestionTypes))
	b.WriteString("\n")

	b.WriteString("QUALITY STANDARDS:\n")
	b.WriteString("- Questions must be directly based on the provided content\n")
	b.WriteString("- Each question should test a specific learning objective\n")
	fmt.Fprintf(&b, "- Language should be appropriate for the %s difficulty level\n", req.Difficulty())
	fmt.Fprintf(&b, "- All questions must be in %s language\n", req.LanguageOrDefault())
	if req.AnswersIncluded() {
		b.WriteString("- Each question must include appropriate answer options with correct answers clearly marked\n\n")
	} else {
		b.WriteString("- Do not include answer options - generate questions only\n\n")
	}

	b.WriteString("OUTPUT REQUIREMENTS:\n")
	b.WriteString("I must return ONLY a valid JSON array with this exact structure:\n")
	b.WriteString(outputExample(strings.Join(req.QuestionTypes, "|"), req.AnswersIncluded()))
	b.WriteString("\n")

	b.WriteString("CRITICAL: Return ONLY the JSON array, no explanations, no additional text, no markdown formatting.\n\n")

	b.WriteString("EDUCATIONAL CONTENT TO ANALYZE:\n")
	b.WriteString(content)

	return b.String()
}

// buildRules returns one rule line per recognized requested type, in
// canonical order. Unrecognized labels contribute no rule.
func buildRules(labels []string) string {
	requested := make(map[QuestionType]bool, len(labels))
	for _, l := range labels {
		if t, ok := ParseType(l); ok {
			requested[t] = true
		}
	}

	var b strings.Builder
	for _, t := range AllTypes {
		if requested[t] {
			fmt.Fprintf(&b, "- %s: %s\n", t, typeRules[t])
		}
	}
	return b.String()
}

func outputExample(typeLabel string, withAnswers bool) string {
	var b strings.Builder
	b.WriteString("[\n")
	b.WriteString("  {\n")
	b.WriteString("    \"text\": \"The question text\",\n")
	if withAnswers {
		fmt.Fprintf(&b, "    \"type\": %q,\n", typeLabel)
		b.WriteString("    \"answers\": [\n")
		b.WriteString("      {\"text\": \"Answer option\", \"isCorrect\": true/false}\n")
		b.WriteString("    ]\n")
	} else {
		fmt.Fprintf(&b, "    \"type\": %q\n", typeLabel)
	}
	b.WriteString("  }\n")
	b.WriteString("]\n")
	return b.String()
}
