package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	text string
	err  error
}

func (f fakeSource) Content(context.Context, int64) (string, error) {
	return f.text, f.err
}

func TestClean(t *testing.T) {
	assert.Equal(t, "a b c", Clean("  a \n\n\tb   c \r\n"))
	assert.Equal(t, "", Clean(" \n\t "))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"no limit", "hello", 0, "hello"},
		{"under limit", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"multibyte kept whole", "čšžđ", 2, "čš"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestStoreProvider(t *testing.T) {
	p := NewStoreProvider(fakeSource{text: "Cells   divide.\n\nThey grow."}, Options{Clean: true, MaxChars: 14})
	text, err := p.Content(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Cells divide. ", text)

	raw := NewStoreProvider(fakeSource{text: "a\n\nb"}, Options{})
	text, err = raw.Content(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", text)
}

func TestStoreProvider_Error(t *testing.T) {
	boom := errors.New("no such document")
	p := NewStoreProvider(fakeSource{err: boom}, Options{})
	_, err := p.Content(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStatic(t *testing.T) {
	s := Static{1: "one"}
	text, err := s.Content(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "one", text)

	_, err = s.Content(context.Background(), 2)
	assert.Error(t, err)
}
