package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveycipher/internal/model"
)

// ErrNotFound is returned when no profile exists for an identifier.
var ErrNotFound = mongo.ErrNoDocuments

type ReputationRepository interface {
	Get(ctx context.Context, identifier string) (*model.ReputationProfile, error)
	Upsert(ctx context.Context, profile *model.ReputationProfile) error
	ListBlocked(ctx context.Context, limit int64) ([]*model.ReputationProfile, error)
}

type reputationRepository struct {
	collection *mongo.Collection
}

func NewReputationRepository(client *mongo.Client) ReputationRepository {
	db := client.Database("surveycipher")
	return &reputationRepository{
		collection: db.Collection("reputation_profiles"),
	}
}

func (r *reputationRepository) Get(ctx context.Context, identifier string) (*model.ReputationProfile, error) {
	var profile model.ReputationProfile
	err := r.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *reputationRepository) Upsert(ctx context.Context, profile *model.ReputationProfile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"identifier": profile.Identifier}, profile, opts)
	return err
}

func (r *reputationRepository) ListBlocked(ctx context.Context, limit int64) ([]*model.ReputationProfile, error) {
	opts := options.Find().SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"blocked": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*model.ReputationProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// memoryReputationRepository is the in-process fallback used in tests
// and when Mongo is not configured.
type memoryReputationRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.ReputationProfile
}

func NewMemoryReputationRepository() ReputationRepository {
	return &memoryReputationRepository{
		profiles: make(map[string]model.ReputationProfile),
	}
}

func (r *memoryReputationRepository) Get(_ context.Context, identifier string) (*model.ReputationProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	clone := profile
	clone.RecentRisks = append([]float64(nil), profile.RecentRisks...)
	clone.Submissions = append([]time.Time(nil), profile.Submissions...)
	clone.SurveyIDs = append([]string(nil), profile.SurveyIDs...)
	clone.Violations = append([]string(nil), profile.Violations...)
	return &clone, nil
}

func (r *memoryReputationRepository) Upsert(_ context.Context, profile *model.ReputationProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.Identifier] = *profile
	return nil
}

func (r *memoryReputationRepository) ListBlocked(_ context.Context, limit int64) ([]*model.ReputationProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var profiles []*model.ReputationProfile
	for _, p := range r.profiles {
		if !p.Blocked {
			continue
		}
		clone := p
		profiles = append(profiles, &clone)
		if int64(len(profiles)) == limit {
			break
		}
	}
	return profiles, nil
}
