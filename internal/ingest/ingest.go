// Package ingest watches inbox directories and runs every new file through
// extraction and analysis, or queues it for transcription when it is media.
package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/jobs"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
)

// SidecarSuffix is appended to a processed file's name for its result file.
const SidecarSuffix = ".intake.json"

// Outcome is the per-file ingest result.
type Outcome struct {
	SourcePath  string              `json:"sourcePath"`
	HashHex     string              `json:"sha256"`
	Class       constants.FileClass `json:"class"`
	SizeBytes   int64               `json:"sizeBytes"`
	Method      constants.Method    `json:"method,omitempty"`
	Warning     string              `json:"warning,omitempty"`
	TextRunes   int                 `json:"textRunes,omitempty"`
	Analysis    *risk.Analysis      `json:"analysis,omitempty"`
	JobID       string              `json:"jobId,omitempty"`
	ProcessedAt time.Time           `json:"processedAt"`
	Err         string              `json:"error,omitempty"`
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// JobSubmitter queues media for background transcription.
type JobSubmitter interface {
	Submit(ctx context.Context, sub jobs.Submission) (jobs.Job, error)
}
