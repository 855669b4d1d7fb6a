package jobs

import (
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/repository"
)

// Job is a snapshot of one background transcription.
type Job struct {
	ID         string                      `json:"id"`
	Status     constants.JobStatus         `json:"status"`
	Percent    int                         `json:"percent"`
	Message    string                      `json:"message"`
	Mode       constants.TranscriptionMode `json:"mode"`
	PartsTotal int                         `json:"partsTotal"`
	PartIndex  int                         `json:"partIndex"`
	FileName   string                      `json:"fileName"`
	OwnerID    string                      `json:"ownerId"`
	Text       string                      `json:"text,omitempty"`
	Error      string                      `json:"error,omitempty"`
	CreatedAt  time.Time                   `json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

// Submission is one request to transcribe media in the background.
type Submission struct {
	OwnerID  string
	FileName string
	MimeType string
	Prompt   string
	Data     []byte
}

func (j Job) toRecord() repository.JobRecord {
	return repository.JobRecord{
		ID:         j.ID,
		OwnerID:    j.OwnerID,
		FileName:   j.FileName,
		Status:     string(j.Status),
		Percent:    j.Percent,
		Message:    j.Message,
		Mode:       string(j.Mode),
		PartsTotal: j.PartsTotal,
		PartIndex:  j.PartIndex,
		Text:       j.Text,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

func fromRecord(r repository.JobRecord) *Job {
	return &Job{
		ID:         r.ID,
		Status:     constants.JobStatus(r.Status),
		Percent:    r.Percent,
		Message:    r.Message,
		Mode:       constants.TranscriptionMode(r.Mode),
		PartsTotal: r.PartsTotal,
		PartIndex:  r.PartIndex,
		FileName:   r.FileName,
		OwnerID:    r.OwnerID,
		Text:       r.Text,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
