// Package retrieval ranks intake documents against a free-text query using a
// bag-of-words overlap score. There is no index; every call scans the slice.
package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
)

const (
	DefaultTopK       = 4
	SnippetRunes      = 360
	DefaultSourceType = "context"
)

// Document is a transient unit of retrievable text.
type Document struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	SourceType string   `json:"sourceType,omitempty"`
}

// Match is a ranked Document with a trimmed snippet.
type Match struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Snippet    string   `json:"snippet"`
	Tags       []string `json:"tags"`
	Score      float64  `json:"score"`
	SourceType string   `json:"sourceType"`
}

var stopWords = map[string]struct{}{
	"и": {}, "в": {}, "во": {}, "на": {}, "с": {}, "со": {}, "по": {}, "что": {}, "это": {},
	"как": {}, "для": {}, "под": {}, "при": {}, "а": {}, "но": {}, "или": {}, "ли": {}, "к": {},
	"ко": {}, "из": {}, "от": {}, "до": {}, "за": {}, "у": {}, "о": {}, "об": {}, "не": {},
	"мы": {}, "он": {}, "она": {}, "они": {}, "бы": {}, "то": {}, "же": {},
}

func keepRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я', r == 'ё':
		return true
	}
	return unicode.IsSpace(r)
}

// Tokenize lowercases text, blanks out everything but Latin, Cyrillic, digits
// and whitespace, and drops stop words and tokens of two runes or fewer.
func Tokenize(text string) []string {
	lowered := strings.Map(func(r rune) rune {
		if keepRune(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	var out []string
	for _, tok := range strings.Fields(lowered) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Score is |Q∩D| / (sqrt(|Q|)·sqrt(max(1,|D|))) where query tokens count with
// repeats and D is the token set of title, content and tags.
func Score(queryTokens []string, doc Document) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	docSet := make(map[string]struct{})
	for _, tok := range Tokenize(doc.Title + " " + doc.Content + " " + strings.Join(doc.Tags, " ")) {
		docSet[tok] = struct{}{}
	}

	overlap := 0
	for _, tok := range queryTokens {
		if _, ok := docSet[tok]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	denom := math.Sqrt(float64(len(queryTokens))) * math.Sqrt(float64(max(1, len(docSet))))
	return float64(overlap) / denom
}

// Retrieve returns at most topK documents with a positive score, best first.
// Ties keep input order. topK <= 0 means DefaultTopK.
func Retrieve(query string, docs []Document, topK int) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	q := Tokenize(query)

	type scored struct {
		doc   Document
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for _, d := range docs {
		if s := Score(q, d); s > 0 {
			ranked = append(ranked, scored{doc: d, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		source := r.doc.SourceType
		if source == "" {
			source = DefaultSourceType
		}
		tags := r.doc.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, Match{
			ID:         r.doc.ID,
			Title:      r.doc.Title,
			Snippet:    textclean.Truncate(r.doc.Content, SnippetRunes),
			Tags:       tags,
			Score:      math.Round(r.score*1e4) / 1e4,
			SourceType: source,
		})
	}
	return out
}
