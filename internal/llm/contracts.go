package llm

import "context"

// ImageInput is one image passed to a vision model.
// ImageURL is either https://... or a data:image/...;base64,... URL.
type ImageInput struct {
	ImageURL string
	Detail   string
}

// VisionRecognizer returns the text a vision model reads off the given images.
type VisionRecognizer interface {
	RecognizeImages(ctx context.Context, instruction string, images []ImageInput) (string, error)
}

// AudioRequest is one upload to a speech-to-text backend.
type AudioRequest struct {
	FileName string
	MimeType string
	Data     []byte
	Prompt   string
}

// AudioTranscriber is the transcription backend the media pipeline depends on.
type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, req AudioRequest) (string, error)
}

// MatterInput is the case material handed to an external analyzer.
type MatterInput struct {
	Company    string
	Industry   string
	SourceType string
	Summary    string
	RawText    string
}

// ContextDoc is a retrieved snippet offered to the model as grounding.
type ContextDoc struct {
	Title   string
	Tags    []string
	Snippet string
}

type ModelRisk struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
}

// ModelAnalysis is the loosely-typed analysis a model returns, before clamping.
type ModelAnalysis struct {
	RiskScore       *float64    `json:"riskScore,omitempty"`
	Urgency         string      `json:"urgency"`
	Tags            []string    `json:"tags,omitempty"`
	Risks           []ModelRisk `json:"risks,omitempty"`
	Timeline        []string    `json:"timeline,omitempty"`
	Obligations     []string    `json:"obligations,omitempty"`
	Actions         []string    `json:"actions,omitempty"`
	Confidence      *float64    `json:"confidence,omitempty"`
	LegalReferences []string    `json:"legalReferences,omitempty"`
}

// MatterAnalyzer is an external (model-backed) risk analyzer.
type MatterAnalyzer interface {
	AnalyzeMatter(ctx context.Context, matter MatterInput, docs []ContextDoc) (ModelAnalysis, error)
}
