package constants

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further updates are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsActive reports whether the job counts against per-owner concurrency.
func (s JobStatus) IsActive() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// TranscriptionMode tells how a media payload was routed.
type TranscriptionMode string

const (
	ModePending   TranscriptionMode = "pending"
	ModeSingle    TranscriptionMode = "single"
	ModeSegmented TranscriptionMode = "segmented"
)

// Audit actions emitted by the job registry.
const (
	AuditTranscriptionStarted   = "transcription.started"
	AuditTranscriptionCompleted = "transcription.completed"
	AuditTranscriptionFailed    = "transcription.failed"
)
