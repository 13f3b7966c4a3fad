package jobcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyProvider     KeyContext = "provider"
	keyJobStartTime KeyContext = "job_start_time"
)

// DefaultTimeout bounds a job when no timeout is configured
const DefaultTimeout = 45 * time.Minute

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	JobID     uuid.UUID
	Provider  string
	StartTime time.Time
	Deadline  time.Time
}

// JobBegin derives a job context carrying metadata and a deadline.
// timeout <= 0 selects DefaultTimeout.
func JobBegin(parentCtx context.Context, jobID uuid.UUID, provider string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyProvider, provider)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// Run executes jobFunc once, converting a panic into an error
func Run(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	return jobFunc(ctx)
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetProvider extracts the provider name from context
func GetProvider(ctx context.Context) (string, bool) {
	provider, ok := ctx.Value(keyProvider).(string)
	return provider, ok
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	provider, _ := GetProvider(ctx)
	startTime, _ := GetJobStartTime(ctx)
	deadline, _ := ctx.Deadline()

	return &JobMetadata{
		JobID:     jobID,
		Provider:  provider,
		StartTime: startTime,
		Deadline:  deadline,
	}
}
