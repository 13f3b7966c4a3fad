package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

// TranscriptionJobRepository defines persistence operations for transcription jobs.
// Lookups return (nil, nil) when the job does not exist.
type TranscriptionJobRepository interface {
	CreateJob(ctx context.Context, job *entities.TranscriptionJob) error
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*entities.TranscriptionJob, error)
	UpdateJob(ctx context.Context, job *entities.TranscriptionJob) error

	// ListJobsByState returns jobs in the given states, oldest first
	ListJobsByState(ctx context.Context, states []entities.JobState, limit int) ([]entities.TranscriptionJob, error)

	// FailInterruptedJobs moves every non-terminal job to the error state and
	// returns how many were changed
	FailInterruptedJobs(ctx context.Context, code, errMsg string) (int64, error)
}
