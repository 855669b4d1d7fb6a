package retrieval

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"stop words and short tokens", "Это договор на поставку и он не подписан", []string{"договор", "поставку", "подписан"}},
		{"punctuation becomes space", "Претензия№12,штраф!", []string{"претензия", "штраф"}},
		{"mixed scripts", "Invoice ООО «Ромашка» 2026", []string{"invoice", "ооо", "ромашка", "2026"}},
		{"yo survives", "Ёлка", []string{"ёлка"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestScore(t *testing.T) {
	doc := Document{Title: "Претензия", Content: "штраф за просрочку", Tags: []string{"долг"}}

	assert.Zero(t, Score(nil, doc))
	assert.Zero(t, Score([]string{"иск"}, doc))

	// 2 hits out of 3 query tokens, 4 distinct doc tokens
	got := Score([]string{"претензия", "штраф", "суд"}, doc)
	assert.InDelta(t, 2/(math.Sqrt(3)*math.Sqrt(4)), got, 1e-12)

	// repeated query tokens count twice
	got = Score([]string{"штраф", "штраф"}, doc)
	assert.InDelta(t, 2/(math.Sqrt(2)*math.Sqrt(4)), got, 1e-12)
}

func TestRetrieve(t *testing.T) {
	docs := []Document{
		{ID: "a", Title: "Поставка", Content: "договор поставки оборудования"},
		{ID: "b", Title: "Претензия", Content: "претензия по договору штраф неустойка", SourceType: "rag"},
		{ID: "c", Title: "Отпуск", Content: "график отпусков"},
		{ID: "d", Title: "Штраф", Content: "претензия штраф"},
	}

	got := Retrieve("претензия штраф", docs, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "context", got[0].SourceType)
	assert.Equal(t, "rag", got[1].SourceType)
	assert.Equal(t, []string{}, got[0].Tags)
	assert.Equal(t, math.Round(got[1].Score*1e4)/1e4, got[1].Score)

	assert.Len(t, Retrieve("претензия штраф", docs, 1), 1)
	assert.Empty(t, Retrieve("и в на", docs, 4))
}

func TestRetrieve_StableTiesAndSnippet(t *testing.T) {
	long := strings.Repeat("ж", 500)
	docs := []Document{
		{ID: "first", Content: "аренда " + long},
		{ID: "second", Content: "аренда " + long},
	}
	got := Retrieve("аренда", docs, 4)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, SnippetRunes, len([]rune(got[0].Snippet)))
}
