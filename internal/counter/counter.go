// Package counter allocates strictly increasing per-app build numbers.
package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildnumber-dev/buildnumber/internal/metrics"
	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// maxAttempts bounds the allocation retry loop. A retry only happens when a
// concurrent allocation for the same app claimed the number first, so in
// practice the first or second attempt wins.
const maxAttempts = 3

// Storage is the subset of storage operations the counter needs.
type Storage interface {
	AllocateBuild(ctx context.Context, appID string, metadata json.RawMessage) (*storage.Build, error)
	GetLastBuild(ctx context.Context, appID string) (*storage.Build, error)
	GetBuildByNumber(ctx context.Context, appID string, buildNumber int64) (*storage.Build, error)
}

// Counter hands out build numbers for apps. Allocations for different apps
// are independent; allocations for the same app serialize on the storage
// transaction and retry on number collisions.
type Counter struct {
	storage Storage
	logger  *slog.Logger
}

// New creates a Counter.
func New(s Storage, logger *slog.Logger) *Counter {
	return &Counter{storage: s, logger: logger}
}

// Allocate assigns the next build number for the app and persists the build
// with the supplied metadata (empty document if nil). Collisions with
// concurrent allocations are retried up to maxAttempts times; each full
// cycle re-reads the current maximum, so retries never skip a number.
func (c *Counter) Allocate(ctx context.Context, appID string, metadata json.RawMessage) (*storage.Build, error) {
	for attempt := 1; ; attempt++ {
		build, err := c.storage.AllocateBuild(ctx, appID, metadata)
		if err == nil {
			metrics.RecordBuildAllocated()
			return build, nil
		}

		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, err
		}

		if attempt == maxAttempts {
			return nil, fmt.Errorf("build allocation contention after %d attempts: %w", attempt, err)
		}

		metrics.RecordAllocationRetry()
		c.logger.Debug("build number collision, retrying",
			"app_id", appID,
			"attempt", attempt,
		)
	}
}

// Latest returns the build with the highest build number for the app.
// Returns storage.ErrNotFound if no build exists yet.
func (c *Counter) Latest(ctx context.Context, appID string) (*storage.Build, error) {
	return c.storage.GetLastBuild(ctx, appID)
}

// ByNumber returns the build with the exact build number for the app.
// Returns storage.ErrNotFound if no such build exists. Callers validate that
// buildNumber is a positive integer before calling.
func (c *Counter) ByNumber(ctx context.Context, appID string, buildNumber int64) (*storage.Build, error) {
	return c.storage.GetBuildByNumber(ctx, appID, buildNumber)
}
