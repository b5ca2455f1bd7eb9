package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"surveycipher/internal/model"
)

// ResultCache keeps finished assessments hot so lookups shortly after
// scoring skip MongoDB.
type ResultCache interface {
	SetResult(ctx context.Context, result *model.AssessmentResult) error
	GetResult(ctx context.Context, assessmentID string) (*model.AssessmentResult, error)
	DeleteResult(ctx context.Context, assessmentID string) error
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache creates a new result cache
func NewResultCache(client *redis.Client) ResultCache {
	return &resultCache{
		client: client,
		ttl:    1 * time.Hour,
	}
}

func (c *resultCache) key(assessmentID string) string {
	return "assessment:" + assessmentID
}

func (c *resultCache) SetResult(ctx context.Context, result *model.AssessmentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(result.AssessmentID), data, c.ttl).Err()
}

func (c *resultCache) GetResult(ctx context.Context, assessmentID string) (*model.AssessmentResult, error) {
	data, err := c.client.Get(ctx, c.key(assessmentID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result model.AssessmentResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *resultCache) DeleteResult(ctx context.Context, assessmentID string) error {
	return c.client.Del(ctx, c.key(assessmentID)).Err()
}
