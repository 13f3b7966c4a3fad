package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

const statusKeyPrefix = "transcription:status:"

// StatusCache stores job status snapshots as JSON
type StatusCache struct {
	store Store
	ttl   time.Duration
}

// NewStatusCache creates a status cache on top of store
func NewStatusCache(store Store, ttl time.Duration) *StatusCache {
	return &StatusCache{store: store, ttl: ttl}
}

func statusKey(jobID uuid.UUID) string {
	return statusKeyPrefix + jobID.String()
}

// SetStatus stores the snapshot
func (c *StatusCache) SetStatus(ctx context.Context, status entities.JobStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return apperrors.ErrCacheFailed("encode status", err)
	}
	if err := c.store.Set(ctx, statusKey(status.JobID), string(b), c.ttl); err != nil {
		return apperrors.ErrCacheFailed("set status", err)
	}
	return nil
}

// GetStatus returns the snapshot, or nil on a cache miss
func (c *StatusCache) GetStatus(ctx context.Context, jobID uuid.UUID) (*entities.JobStatus, error) {
	value, found, err := c.store.Get(ctx, statusKey(jobID))
	if err != nil {
		return nil, apperrors.ErrCacheFailed("get status", err)
	}
	if !found {
		return nil, nil
	}

	var status entities.JobStatus
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return nil, apperrors.ErrCacheFailed("decode status", err)
	}
	return &status, nil
}

// DeleteStatus removes the snapshot
func (c *StatusCache) DeleteStatus(ctx context.Context, jobID uuid.UUID) error {
	if err := c.store.Delete(ctx, statusKey(jobID)); err != nil {
		return apperrors.ErrCacheFailed("delete status", err)
	}
	return nil
}
