package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"surveycipher/internal/model"
)

// IPCache holds resolved IP intelligence for a day so repeat
// submissions from the same address skip the resolver.
type IPCache interface {
	Set(ctx context.Context, rep *model.IPReputation) error
	Get(ctx context.Context, ip string) (*model.IPReputation, error)
	Delete(ctx context.Context, ip string) error
}

type ipCache struct {
	client *redis.Client
}

func NewIPCache(client *redis.Client) IPCache {
	return &ipCache{
		client: client,
	}
}

func (c *ipCache) Set(ctx context.Context, rep *model.IPReputation) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "ip:"+rep.IP, data, 24*time.Hour).Err()
}

func (c *ipCache) Get(ctx context.Context, ip string) (*model.IPReputation, error) {
	data, err := c.client.Get(ctx, "ip:"+ip).Result()
	if err != nil {
		return nil, err
	}
	var rep model.IPReputation
	err = json.Unmarshal([]byte(data), &rep)
	return &rep, err
}

func (c *ipCache) Delete(ctx context.Context, ip string) error {
	return c.client.Del(ctx, "ip:"+ip).Err()
}
