package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

// TranscriptionJobRepository handles transcription job data operations
type TranscriptionJobRepository struct {
	db *gorm.DB
}

// NewTranscriptionJobRepository creates a new transcription job repository
func NewTranscriptionJobRepository(db *gorm.DB) *TranscriptionJobRepository {
	return &TranscriptionJobRepository{db: db}
}

// CreateJob creates a new transcription job
func (r *TranscriptionJobRepository) CreateJob(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJobByID retrieves a transcription job by ID
func (r *TranscriptionJobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	if err := r.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// UpdateJob saves every column of the job
func (r *TranscriptionJobRepository) UpdateJob(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ?", job.ID).
		Save(job).Error
}

// ListJobsByState retrieves jobs in the given states
func (r *TranscriptionJobRepository) ListJobsByState(ctx context.Context, states []entities.JobState, limit int) ([]entities.TranscriptionJob, error) {
	var jobs []entities.TranscriptionJob
	if limit == 0 {
		limit = 100
	}
	if err := r.db.WithContext(ctx).
		Where("state IN ?", states).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FailInterruptedJobs marks jobs left unfinished by a previous process as failed
func (r *TranscriptionJobRepository) FailInterruptedJobs(ctx context.Context, code, errMsg string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("state NOT IN ?", []entities.JobState{entities.JobStateDone, entities.JobStateError}).
		Updates(map[string]interface{}{
			"state":        entities.JobStateError,
			"error_code":   code,
			"last_error":   errMsg,
			"completed_at": now,
			"updated_at":   now,
		})
	return result.RowsAffected, result.Error
}
