package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EnvelopeKind names the reply convention a provider used.
type EnvelopeKind int

const (
	// EnvelopeEmpty is an absent, blank or null reply.
	EnvelopeEmpty EnvelopeKind = iota
	// EnvelopeChat carries choices[0].message.content.
	EnvelopeChat
	// EnvelopeCompletion carries choices[0].text.
	EnvelopeCompletion
	// EnvelopeGeneratedText carries a top-level generated_text field.
	EnvelopeGeneratedText
	// EnvelopeFlat is any object with at least one top-level string field.
	EnvelopeFlat
	// EnvelopeUnknown is everything else; its text is the envelope itself.
	EnvelopeUnknown
)

var envelopeKindNames = map[EnvelopeKind]string{
	EnvelopeEmpty:         "empty",
	EnvelopeChat:          "chat",
	EnvelopeCompletion:    "completion",
	EnvelopeGeneratedText: "generated_text",
	EnvelopeFlat:          "flat",
	EnvelopeUnknown:       "unknown",
}

func (k EnvelopeKind) String() string {
	if s, ok := envelopeKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// emptyEnvelopeText is what an empty reply extracts to.
const emptyEnvelopeText = "{}"

// Envelope is a reply envelope resolved to one recognized shape.
type Envelope struct {
	Kind EnvelopeKind

	// Text is the literal payload produced by the model.
	Text string

	// Field is the top-level key the text came from for EnvelopeFlat.
	Field string
}

// ClassifyEnvelope resolves raw into one of the recognized envelope shapes.
// It never fails: unrecognized input falls through to EnvelopeUnknown.
func ClassifyEnvelope(raw json.RawMessage) Envelope {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{Kind: EnvelopeEmpty, Text: emptyEnvelopeText}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		// Not an object. Plain-text bodies are passed on verbatim so the
		// recovery parser still gets a chance at them.
		return Envelope{Kind: EnvelopeUnknown, Text: string(trimmed)}
	}
	if fields == nil {
		return Envelope{Kind: EnvelopeEmpty, Text: emptyEnvelopeText}
	}

	if env, ok := fromChoices(fields["choices"]); ok {
		return env
	}

	if s, ok := asString(fields["generated_text"]); ok {
		return Envelope{Kind: EnvelopeGeneratedText, Text: s}
	}

	if key, s, ok := firstStringField(trimmed); ok {
		return Envelope{Kind: EnvelopeFlat, Text: s, Field: key}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return Envelope{Kind: EnvelopeUnknown, Text: string(trimmed)}
	}
	return Envelope{Kind: EnvelopeUnknown, Text: compact.String()}
}

// ExtractText returns the literal text payload of a reply envelope.
func ExtractText(raw json.RawMessage) string {
	return ClassifyEnvelope(raw).Text
}

// fromChoices handles the chat and completion conventions. A first choice
// holding a message is chat even when the message has no usable content.
func fromChoices(raw json.RawMessage) (Envelope, bool) {
	if len(raw) == 0 {
		return Envelope{}, false
	}
	var choices []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &choices); err != nil || len(choices) == 0 {
		return Envelope{}, false
	}
	first := choices[0]

	if msg, ok := first["message"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			return Envelope{Kind: EnvelopeChat}, true
		}
		return Envelope{Kind: EnvelopeChat, Text: contentText(m["content"])}, true
	}
	if text, ok := first["text"]; ok {
		s, _ := asString(text)
		return Envelope{Kind: EnvelopeCompletion, Text: s}, true
	}
	return Envelope{}, false
}

// contentText reads a message content that is either a plain string or a
// list of typed parts.
func contentText(raw json.RawMessage) string {
	if s, ok := asString(raw); ok {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "" || p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// firstStringField walks the top-level members of obj in document order
// and returns the first one holding a string.
func firstStringField(obj []byte) (string, string, bool) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", "", false
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", "", false
		}
		key, ok := tok.(string)
		if !ok {
			return "", "", false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", "", false
		}
		if s, ok := asString(value); ok {
			return key, s, true
		}
	}
	return "", "", false
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ChatEnvelope wraps text in the chat-completion convention. SDK providers
// whose native reply is not a chat completion use it to hand back a
// recognizable envelope.
func ChatEnvelope(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	})
	return b
}

// GeneratedTextEnvelope wraps text in the generated_text convention.
func GeneratedTextEnvelope(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"generated_text": text})
	return b
}
