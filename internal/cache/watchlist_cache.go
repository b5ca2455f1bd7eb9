package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// WatchlistCache handles Redis ZSET operations for the risk watchlist:
// identifiers ranked by their latest fused fraud probability.
type WatchlistCache interface {
	UpdateRisk(ctx context.Context, identifier string, probability float64) error
	TopRisky(ctx context.Context, limit int) ([]WatchlistEntry, error)
	GetRank(ctx context.Context, identifier string) (int64, error)
	Remove(ctx context.Context, identifier string) error
}

// WatchlistEntry is a single ranked identifier.
type WatchlistEntry struct {
	Identifier  string  `json:"identifier"`
	Probability float64 `json:"probability"`
	Rank        int     `json:"rank"`
}

type watchlistCache struct {
	client *redis.Client
}

// NewWatchlistCache creates a new watchlist cache
func NewWatchlistCache(client *redis.Client) WatchlistCache {
	return &watchlistCache{
		client: client,
	}
}

const watchlistKey = "watchlist"

func (c *watchlistCache) UpdateRisk(ctx context.Context, identifier string, probability float64) error {
	return c.client.ZAdd(ctx, watchlistKey, redis.Z{
		Score:  probability,
		Member: identifier,
	}).Err()
}

func (c *watchlistCache) TopRisky(ctx context.Context, limit int) ([]WatchlistEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, watchlistKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]WatchlistEntry, len(results))
	for i, z := range results {
		entries[i] = WatchlistEntry{
			Identifier:  z.Member.(string),
			Probability: z.Score,
			Rank:        i + 1,
		}
	}
	return entries, nil
}

func (c *watchlistCache) GetRank(ctx context.Context, identifier string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, watchlistKey, identifier).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *watchlistCache) Remove(ctx context.Context, identifier string) error {
	return c.client.ZRem(ctx, watchlistKey, identifier).Err()
}
