package entities

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lightweight view of a job kept in the status cache
type JobStatus struct {
	JobID        uuid.UUID `json:"job_id"`
	Provider     string    `json:"provider"`
	State        JobState  `json:"state"`
	PollAttempts int       `json:"poll_attempts"`
	ErrorCode    string    `json:"error_code,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusOf snapshots the job for the status cache
func StatusOf(job *TranscriptionJob) JobStatus {
	status := JobStatus{
		JobID:        job.ID,
		Provider:     job.Provider,
		State:        job.State,
		PollAttempts: job.PollAttempts,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.ErrorCode != nil {
		status.ErrorCode = *job.ErrorCode
	}
	return status
}
