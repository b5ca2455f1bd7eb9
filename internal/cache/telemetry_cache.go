package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"surveycipher/internal/model"
)

// TelemetryCache keeps the latest behavioral snapshot per session so a
// submission arriving without inline telemetry can still be scored.
type TelemetryCache interface {
	Set(ctx context.Context, sessionID string, metrics *model.BehavioralMetrics) error
	Get(ctx context.Context, sessionID string) (*model.BehavioralMetrics, error)
	Delete(ctx context.Context, sessionID string) error
}

type telemetryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTelemetryCache(client *redis.Client) TelemetryCache {
	return &telemetryCache{
		client: client,
		ttl:    30 * time.Minute,
	}
}

func (c *telemetryCache) Set(ctx context.Context, sessionID string, metrics *model.BehavioralMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "telemetry:"+sessionID, data, c.ttl).Err()
}

func (c *telemetryCache) Get(ctx context.Context, sessionID string) (*model.BehavioralMetrics, error) {
	data, err := c.client.Get(ctx, "telemetry:"+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var metrics model.BehavioralMetrics
	if err := json.Unmarshal([]byte(data), &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (c *telemetryCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "telemetry:"+sessionID).Err()
}
