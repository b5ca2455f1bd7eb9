package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveycipher/internal/model"
)

// BlocklistCache mirrors blocklist verdicts in Redis so hot-path
// membership checks avoid a MongoDB round trip.
type BlocklistCache interface {
	SetVerdict(ctx context.Context, identifier string, verdict *model.BlocklistVerdict) error
	GetVerdict(ctx context.Context, identifier string) (*model.BlocklistVerdict, error)
	Delete(ctx context.Context, identifier string) error
	Exists(ctx context.Context, identifier string) (bool, error)
}

type blocklistCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBlocklistCache creates a new blocklist cache
func NewBlocklistCache(client *redis.Client) BlocklistCache {
	return &blocklistCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *blocklistCache) key(identifier string) string {
	return fmt.Sprintf("blocklist:%s", identifier)
}

func (c *blocklistCache) SetVerdict(ctx context.Context, identifier string, verdict *model.BlocklistVerdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(identifier), data, c.ttl).Err()
}

func (c *blocklistCache) GetVerdict(ctx context.Context, identifier string) (*model.BlocklistVerdict, error) {
	data, err := c.client.Get(ctx, c.key(identifier)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var verdict model.BlocklistVerdict
	if err := json.Unmarshal([]byte(data), &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (c *blocklistCache) Delete(ctx context.Context, identifier string) error {
	return c.client.Del(ctx, c.key(identifier)).Err()
}

func (c *blocklistCache) Exists(ctx context.Context, identifier string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(identifier)).Result()
	return n > 0, err
}
