package manager

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/cafe"
)

const DefaultSnapshotTTL = 30 * time.Second

// SnapshotCache fronts a cafe.Source and serves the last snapshot for ttl.
// When a refresh fails and an older snapshot exists, the old one is served.
type SnapshotCache struct {
	source    cafe.Source
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.RWMutex
	snapshot  []cafe.Cafe
	builtAt   time.Time
	refreshes int
}

// NewSnapshotCache wraps source. A non-positive ttl uses DefaultSnapshotTTL.
func NewSnapshotCache(source cafe.Source, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{source: source, ttl: ttl, logger: logger, now: time.Now}
}

// Cafes returns a copy of the current snapshot, refreshing it when expired.
func (c *SnapshotCache) Cafes(ctx context.Context) ([]cafe.Cafe, error) {
	c.mu.RLock()
	if c.fresh() {
		out := cafe.CloneAll(c.snapshot)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if c.fresh() {
		return cafe.CloneAll(c.snapshot), nil
	}

	cafes, err := c.source.Cafes(ctx)
	if err != nil {
		if c.snapshot != nil {
			c.logger.Warn("cafe source refresh failed, serving previous snapshot", zap.Error(err))
			return cafe.CloneAll(c.snapshot), nil
		}
		return nil, err
	}

	c.snapshot = cafe.CloneAll(cafes)
	if c.snapshot == nil {
		c.snapshot = []cafe.Cafe{}
	}
	c.builtAt = c.now()
	c.refreshes++
	return cafes, nil
}

// Invalidate forces the next call to refresh.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builtAt = time.Time{}
}

// Refreshes counts successful refreshes.
func (c *SnapshotCache) Refreshes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshes
}

func (c *SnapshotCache) fresh() bool {
	return c.snapshot != nil && c.now().Sub(c.builtAt) < c.ttl
}
