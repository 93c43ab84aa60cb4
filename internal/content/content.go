// Package content resolves a document identifier to the text questions are
// generated from.
package content

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Provider returns the plain-text content of a document.
type Provider interface {
	Content(ctx context.Context, documentID int64) (string, error)
}

// Source is the storage capability a StoreProvider reads from.
// store.DocumentRepo satisfies it.
type Source interface {
	Content(ctx context.Context, id int64) (string, error)
}

// Options controls how stored text is prepared for a prompt.
type Options struct {
	// Clean collapses whitespace runs into single spaces.
	Clean bool

	// MaxChars truncates the text to at most this many characters.
	// Zero means no limit.
	MaxChars int
}

// StoreProvider reads document text from a Source.
type StoreProvider struct {
	source Source
	opts   Options
}

// NewStoreProvider returns a Provider backed by source.
func NewStoreProvider(source Source, opts Options) *StoreProvider {
	return &StoreProvider{source: source, opts: opts}
}

func (p *StoreProvider) Content(ctx context.Context, documentID int64) (string, error) {
	text, err := p.source.Content(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("load content for document %d: %w", documentID, err)
	}
	if p.opts.Clean {
		text = Clean(text)
	}
	return Truncate(text, p.opts.MaxChars), nil
}

// Clean collapses every run of whitespace into one space and trims the ends.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts text to at most maxChars characters without splitting a
// multi-byte character. A non-positive maxChars returns text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// Static is a Provider that serves fixed texts, keyed by document ID.
type Static map[int64]string

func (s Static) Content(_ context.Context, documentID int64) (string, error) {
	text, ok := s[documentID]
	if !ok {
		return "", fmt.Errorf("document %d has no content", documentID)
	}
	return text, nil
}
