package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

// MemoryJobRepository keeps jobs in process memory. It is used when no
// database is configured and by tests.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]entities.TranscriptionJob
}

// NewMemoryJobRepository creates an empty in-memory repository
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[uuid.UUID]entities.TranscriptionJob)}
}

func (r *MemoryJobRepository) CreateJob(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryJobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*entities.TranscriptionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (r *MemoryJobRepository) UpdateJob(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	job.UpdatedAt = time.Now()
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryJobRepository) ListJobsByState(ctx context.Context, states []entities.JobState, limit int) ([]entities.TranscriptionJob, error) {
	if limit == 0 {
		limit = 100
	}
	wanted := make(map[entities.JobState]bool, len(states))
	for _, s := range states {
		wanted[s] = true
	}

	r.mu.RLock()
	jobs := make([]entities.TranscriptionJob, 0)
	for _, job := range r.jobs {
		if wanted[job.State] {
			jobs = append(jobs, job)
		}
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *MemoryJobRepository) FailInterruptedJobs(ctx context.Context, code, errMsg string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, job := range r.jobs {
		if job.State.IsTerminal() {
			continue
		}
		job.MarkAsFailed(code, errMsg)
		r.jobs[id] = job
		n++
	}
	return n, nil
}
