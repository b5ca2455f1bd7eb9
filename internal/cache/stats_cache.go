package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveycipher/internal/model"
)

// StatsCache handles Redis operations for per-survey assessment
// aggregates.
type StatsCache interface {
	GetSurveyStats(ctx context.Context, surveyID string) (*model.SurveyStats, error)
	SetSurveyStats(ctx context.Context, stats *model.SurveyStats) error
	RecordAssessment(ctx context.Context, result *model.AssessmentResult) error
}

type statsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *statsCache) key(surveyID string) string {
	return fmt.Sprintf("survey:%s:stats", surveyID)
}

func (c *statsCache) GetSurveyStats(ctx context.Context, surveyID string) (*model.SurveyStats, error) {
	data, err := c.client.Get(ctx, c.key(surveyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats model.SurveyStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *statsCache) SetSurveyStats(ctx context.Context, stats *model.SurveyStats) error {
	stats.UpdatedAt = time.Now()
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(stats.SurveyID), data, c.ttl).Err()
}

// RecordAssessment folds one result into the survey aggregate with a
// read-modify-write. Concurrent writers may race; the aggregate is
// advisory, not billing-grade.
func (c *statsCache) RecordAssessment(ctx context.Context, result *model.AssessmentResult) error {
	if result.SurveyID == "" {
		return nil
	}
	stats, err := c.GetSurveyStats(ctx, result.SurveyID)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &model.SurveyStats{SurveyID: result.SurveyID}
	}
	stats.Record(result)
	return c.SetSurveyStats(ctx, stats)
}
