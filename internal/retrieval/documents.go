package retrieval

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/legal-intake/constants"
)

const (
	DefaultChunkSize    = 1600
	DefaultChunkOverlap = 220
	minChunkSize        = 400

	MaxAttachments          = 24
	MaxAttachmentBytes      = 10 << 20
	maxAttachmentChunks     = 6
	minAttachmentContent    = 40
	maxMatterRawChunks      = 8
	maxAnalysisLinesPerKind = 6
)

// ChunkText collapses whitespace and cuts text into overlapping windows of
// size runes. size is raised to at least 400; overlap is clamped to
// [0, size-120].
func ChunkText(text string, size, overlap int) []string {
	cleaned := []rune(strings.Join(strings.Fields(text), " "))
	if len(cleaned) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	size = max(minChunkSize, size)
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	overlap = max(0, min(size-120, overlap))

	var chunks []string
	offset := 0
	for offset < len(cleaned) {
		end := min(len(cleaned), offset+size)
		if c := strings.TrimSpace(string(cleaned[offset:end])); c != "" {
			chunks = append(chunks, c)
		}
		if end >= len(cleaned) {
			break
		}
		offset = max(0, end-overlap)
	}
	return chunks
}

// Attachment describes a stored case file offered to retrieval.
type Attachment struct {
	ID        string
	Name      string
	Ext       string
	SizeBytes int64
}

// Eligible reports whether the attachment may be extracted for retrieval.
func (a Attachment) Eligible() bool {
	return constants.IsDocumentExt(a.ext()) && a.SizeBytes <= MaxAttachmentBytes
}

func (a Attachment) ext() string {
	if a.Ext != "" {
		return constants.NormalizeExt(a.Ext)
	}
	return constants.ExtOf(a.Name)
}

// AttachmentDocuments chunks extracted attachment text into at most six
// documents. Text shorter than 40 runes yields nothing.
func AttachmentDocuments(att Attachment, text string, method constants.Method) []Document {
	content := strings.TrimSpace(text)
	if len([]rune(content)) < minAttachmentContent {
		return nil
	}
	if method == "" {
		method = "unknown"
	}
	chunks := ChunkText(content, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) > maxAttachmentChunks {
		chunks = chunks[:maxAttachmentChunks]
	}

	docs := make([]Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, Document{
			ID:         fmt.Sprintf("attachment-%s-%d", att.ID, i+1),
			Title:      fmt.Sprintf("Материал дела: %s (%d)", att.Name, i+1),
			Content:    chunk,
			Tags:       []string{"attachment", att.ext(), string(method)},
			SourceType: "attachment",
		})
	}
	return docs
}

// Matter is the subset of a case record that feeds retrieval.
type Matter struct {
	ID             string
	Company        string
	Industry       string
	Summary        string
	RawText        string
	MeetingNotes   string
	RoutineContext string

	// Extracted analysis, already rendered one item per line.
	RiskLines       []string
	TimelineLines   []string
	ObligationLines []string
}

// MatterDocuments turns a case into retrievable documents: summary, up to
// eight raw-text chunks, meeting notes, routine context and a digest of the
// last analysis.
func MatterDocuments(m Matter) []Document {
	industry := m.Industry
	if industry == "" {
		industry = "SMB"
	}
	tags := func(kind string) []string { return []string{"case", industry, kind} }
	title := func(suffix string) string { return fmt.Sprintf("Кейс %s: %s", m.Company, suffix) }

	var docs []Document
	if m.Summary != "" {
		docs = append(docs, Document{
			ID: "matter-" + m.ID + "-summary", Title: title("сводка"),
			Content: m.Summary, Tags: tags("summary"), SourceType: "matter",
		})
	}

	raw := ChunkText(m.RawText, DefaultChunkSize, DefaultChunkOverlap)
	if len(raw) > maxMatterRawChunks {
		raw = raw[:maxMatterRawChunks]
	}
	for i, chunk := range raw {
		docs = append(docs, Document{
			ID:         fmt.Sprintf("matter-%s-raw-%d", m.ID, i+1),
			Title:      title(fmt.Sprintf("фактура %d", i+1)),
			Content:    chunk,
			Tags:       tags("raw_text"),
			SourceType: "matter",
		})
	}

	if m.MeetingNotes != "" {
		docs = append(docs, Document{
			ID: "matter-" + m.ID + "-meeting", Title: title("конспект записи"),
			Content: m.MeetingNotes, Tags: tags("meeting_notes"), SourceType: "matter",
		})
	}
	if m.RoutineContext != "" {
		docs = append(docs, Document{
			ID: "matter-" + m.ID + "-routine", Title: title("рутинный контекст"),
			Content: m.RoutineContext, Tags: tags("routine"), SourceType: "matter",
		})
	}

	var lines []string
	lines = append(lines, head(m.RiskLines, maxAnalysisLinesPerKind)...)
	lines = append(lines, head(m.TimelineLines, maxAnalysisLinesPerKind)...)
	lines = append(lines, head(m.ObligationLines, maxAnalysisLinesPerKind)...)
	if len(lines) > 0 {
		docs = append(docs, Document{
			ID: "matter-" + m.ID + "-analysis", Title: title("извлеченные риски и сроки"),
			Content: strings.Join(lines, "\n"), Tags: tags("analysis"), SourceType: "analysis",
		})
	}
	return docs
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
