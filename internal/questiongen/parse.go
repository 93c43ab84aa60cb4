package questiongen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QuestionDraft is a parsed question that has not been persisted yet.
type QuestionDraft struct {
	Text    string
	Type    string
	Answers []AnswerDraft
}

// AnswerDraft is a parsed answer option.
type AnswerDraft struct {
	Text      string
	IsCorrect bool
}

var errNotArray = errors.New("reply is neither a JSON array nor an object")

// ParseDrafts recovers question drafts from free model output. Any failure
// yields an empty result.
func ParseDrafts(raw string) []QuestionDraft {
	drafts, _ := Parse(raw)
	return drafts
}

// Parse is ParseDrafts with the reason for an empty result exposed.
// Items without usable text are dropped without error.
func Parse(raw string) ([]QuestionDraft, error) {
	items, err := decodeItems(locateJSON(raw))
	if err != nil {
		return nil, err
	}

	drafts := make([]QuestionDraft, 0, len(items))
	for _, item := range items {
		if d, ok := draftFromItem(item); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

// locateJSON picks the JSON candidate out of raw: the widest [...] span,
// then the widest {...} span, then raw itself wrapped in brackets.
func locateJSON(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "[]"
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start != -1 && end > start {
		return raw[start : end+1]
	}

	start = strings.Index(raw, "{")
	end = strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		return raw[start : end+1]
	}

	return "[" + raw + "]"
}

// decodeItems parses candidate and returns its elements. A single object
// is treated as a one-element array. Elements that are not objects are
// skipped.
func decodeItems(candidate string) ([]map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode reply JSON: %w", err)
	}

	switch val := v.(type) {
	case []any:
		items := make([]map[string]any, 0, len(val))
		for _, el := range val {
			if m, ok := el.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items, nil
	case map[string]any:
		return []map[string]any{val}, nil
	default:
		return nil, errNotArray
	}
}

// draftFromItem converts one decoded element. It reports false when the
// element has no usable question text.
func draftFromItem(item map[string]any) (QuestionDraft, bool) {
	text := asText(firstPresent(item, "text", "question"))
	if strings.TrimSpace(text) == "" {
		return QuestionDraft{}, false
	}

	d := QuestionDraft{Text: text, Type: string(DefaultType)}
	if v, ok := item["type"]; ok {
		d.Type = asText(v)
	}

	answers, _ := item["answers"].([]any)
	for _, el := range answers {
		a, ok := el.(map[string]any)
		if !ok {
			continue
		}
		answerText := asText(firstPresent(a, "text", "answer"))
		if strings.TrimSpace(answerText) == "" {
			continue
		}
		d.Answers = append(d.Answers, AnswerDraft{
			Text:      answerText,
			IsCorrect: asBool(firstPresent(a, "isCorrect", "correct")),
		})
	}

	return d, true
}

// firstPresent returns the value of the first key present in m. Presence
// decides, so a blank primary key does not fall back.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// asText renders scalars as text. Null and containers are blank.
func asText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// asBool accepts booleans, "true" in any case and non-zero numbers.
func asBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "true")
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
