package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextRunes caps every extraction result.
const MaxTextRunes = 40000

var (
	reTrailingBlank = regexp.MustCompile(`[ \t]+\n`)
	reMultiBlank    = regexp.MustCompile(`\n{3,}`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// Sanitize strips NULs and trailing line blanks, collapses runs of blank
// lines into one, trims, and caps the result at MaxTextRunes.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = reTrailingBlank.ReplaceAllString(s, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return Truncate(s, MaxTextRunes)
}

// CollapseWhitespace turns every whitespace run into a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
