package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

const (
	statsKeyPrefix = "stats:"
	statsCacheTTL  = time.Hour
)

// StatsCache keeps per-owner statistics in Redis. Every mutation by an
// owner invalidates their key, so a stale read is impossible as long as
// mutations go through the handlers.
type StatsCache struct {
	client *redis.Client
}

func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Get returns the cached statistics, or ok=false on a miss. Redis failures
// count as misses.
func (c *StatsCache) Get(ctx context.Context, ownerID uuid.UUID) (*models.Statistics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, statsKeyPrefix+ownerID.String()).Result()
	if err != nil {
		return nil, false
	}
	var stats models.Statistics
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set caches the statistics for one owner.
func (c *StatsCache) Set(ctx context.Context, ownerID uuid.UUID, stats *models.Statistics) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	c.client.Set(ctx, statsKeyPrefix+ownerID.String(), data, statsCacheTTL)
}

// Invalidate drops the cached statistics after any entry mutation.
func (c *StatsCache) Invalidate(ctx context.Context, ownerID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, statsKeyPrefix+ownerID.String())
}
