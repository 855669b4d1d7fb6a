package textclean

import (
	"strings"
	"unicode"
)

const (
	minUsefulRunes  = 20
	sampleRunes     = 1800
	minReadableRate = 0.74
	minPDFWords     = 4
)

// IsUseful is the shared quality gate applied after every extraction strategy.
// ext is the normalized extension; "pdf" additionally requires a few real words.
func IsUseful(text, ext string) bool {
	value := strings.TrimSpace(text)
	if len([]rune(value)) < minUsefulRunes {
		return false
	}

	lowered := strings.ToLower(value)
	if strings.HasPrefix(lowered, "%pdf-") || strings.Contains(lowered, "endobj") || strings.Contains(lowered, "/flatedecode") {
		return false
	}

	sample := Truncate(value, sampleRunes)
	total, readable := 0, 0
	for _, r := range sample {
		total++
		if isReadable(r) {
			readable++
		}
	}
	if total == 0 || float64(readable)/float64(total) < minReadableRate {
		return false
	}

	if ext == "pdf" {
		words := 0
		for _, w := range strings.Fields(sample) {
			if strings.IndexFunc(w, isLetter) >= 0 {
				words++
			}
		}
		if words < minPDFWords {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	r = unicode.ToLower(r)
	return (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я') || r == 'ё'
}

func isReadable(r rune) bool {
	if isLetter(r) || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`.,:;!?()[]-_"'/%`, r)
}
