package retrieval

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/constants"
)

func TestChunkText(t *testing.T) {
	assert.Nil(t, ChunkText("   \n\t ", 1600, 220))
	assert.Equal(t, []string{"a b c"}, ChunkText("a \n\n b\tc", 1600, 220))

	text := strings.Repeat("x", 1000)
	chunks := ChunkText(text, 400, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 400)
	assert.Len(t, chunks[1], 400) // 300..700
	assert.Len(t, chunks[2], 400) // 600..1000

	// size is raised to 400 and overlap clamped to size-120
	chunks = ChunkText(strings.Repeat("y", 700), 10, 1000)
	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 400)
	assert.Len(t, chunks[3], 340) // 360..700
}

func TestChunkText_CountsRunes(t *testing.T) {
	chunks := ChunkText(strings.Repeat("д", 500), 400, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, 400, len([]rune(chunks[0])))
	assert.Equal(t, 200, len([]rune(chunks[1])))
}

func TestAttachmentDocuments(t *testing.T) {
	att := Attachment{ID: "42", Name: "contract.docx", SizeBytes: 1024}
	assert.True(t, att.Eligible())

	assert.Nil(t, AttachmentDocuments(att, "  short text  ", constants.MethodDocconv))

	var b strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&b, "пункт %d договора ", i)
	}
	docs := AttachmentDocuments(att, b.String(), constants.MethodDocconv)
	require.Len(t, docs, 6)
	assert.Equal(t, "attachment-42-1", docs[0].ID)
	assert.Equal(t, "Материал дела: contract.docx (1)", docs[0].Title)
	assert.Equal(t, []string{"attachment", "docx", "docconv"}, docs[0].Tags)
	assert.Equal(t, "attachment", docs[5].SourceType)
}

func TestAttachmentEligible(t *testing.T) {
	assert.False(t, Attachment{Name: "call.mp3", SizeBytes: 10}.Eligible())
	assert.False(t, Attachment{Name: "scan.pdf", SizeBytes: MaxAttachmentBytes + 1}.Eligible())
	assert.True(t, Attachment{Name: "scan", Ext: ".PDF", SizeBytes: 10}.Eligible())
}

func TestMatterDocuments(t *testing.T) {
	m := Matter{
		ID:           "m1",
		Company:      "Ромашка",
		Summary:      "Спор по поставке",
		RawText:      strings.Repeat("текст претензии ", 2000),
		MeetingNotes: "Созвон с клиентом",
		RiskLines:    []string{"1. Договор: штраф"},
		TimelineLines: []string{
			"До 18.02.2026 предоставить акт",
		},
	}
	docs := MatterDocuments(m)

	require.NotEmpty(t, docs)
	assert.Equal(t, "matter-m1-summary", docs[0].ID)
	assert.Equal(t, "Кейс Ромашка: сводка", docs[0].Title)
	assert.Equal(t, []string{"case", "SMB", "summary"}, docs[0].Tags)

	var raw, analysis int
	for _, d := range docs {
		if strings.Contains(d.ID, "-raw-") {
			raw++
		}
		if d.SourceType == "analysis" {
			analysis++
			assert.Equal(t, "1. Договор: штраф\nДо 18.02.2026 предоставить акт", d.Content)
		}
	}
	assert.Equal(t, 8, raw)
	assert.Equal(t, 1, analysis)
	assert.Equal(t, "matter-m1-analysis", docs[len(docs)-1].ID)
}
