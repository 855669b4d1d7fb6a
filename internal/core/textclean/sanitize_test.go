package textclean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"nul bytes", "a\x00b\x00c", "abc"},
		{"trailing blanks", "line one   \nline two\t\t\nend", "line one\nline two\nend"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim", "  \n hello \n ", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_CapsRunes(t *testing.T) {
	in := strings.Repeat("я", MaxTextRunes+500)
	out := Sanitize(in)
	assert.Equal(t, MaxTextRunes, len([]rune(out)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "при", Truncate("привет", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \n\t b\n\nc "))
}
