package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with expiration.
// Get reports found=false for missing or expired keys.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
	Close() error
}
