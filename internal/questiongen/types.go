package questiongen

import "strings"

// QuestionType is one of the closed set of supported question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	FillInTheBlank QuestionType = "FILL_IN_THE_BLANK"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Matching       QuestionType = "MATCHING"
	Ordering       QuestionType = "ORDERING"
	Essay          QuestionType = "ESSAY"

	// DefaultType is what unrecognized labels normalize to.
	DefaultType = MultipleChoice
)

// AllTypes lists every supported question type in canonical order.
var AllTypes = []QuestionType{
	MultipleChoice,
	TrueFalse,
	FillInTheBlank,
	ShortAnswer,
	Matching,
	Ordering,
	Essay,
}

// ParseType matches label case-insensitively against the supported types.
func ParseType(label string) (QuestionType, bool) {
	label = strings.TrimSpace(label)
	for _, t := range AllTypes {
		if strings.EqualFold(label, string(t)) {
			return t, true
		}
	}
	return "", false
}

// NormalizeType maps an arbitrary label onto a supported type. Labels that
// match nothing become MULTIPLE_CHOICE.
func NormalizeType(label string) QuestionType {
	if t, ok := ParseType(label); ok {
		return t
	}
	return DefaultType
}
