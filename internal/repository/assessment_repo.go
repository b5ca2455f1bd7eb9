package repository

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveycipher/internal/model"
)

// AssessmentRepository handles MongoDB operations for finished
// assessments.
type AssessmentRepository interface {
	Insert(ctx context.Context, result *model.AssessmentResult) error
	GetByID(ctx context.Context, assessmentID string) (*model.AssessmentResult, error)
	GetBySubmission(ctx context.Context, submissionID string) (*model.AssessmentResult, error)
	ListBySurvey(ctx context.Context, surveyID string, limit int) ([]*model.AssessmentResult, error)
	ListByIdentifier(ctx context.Context, identifier string, limit int) ([]*model.AssessmentResult, error)
}

type assessmentRepository struct {
	collection *mongo.Collection
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(client *mongo.Client) AssessmentRepository {
	return &assessmentRepository{
		collection: client.Database("surveycipher").Collection("assessments"),
	}
}

func (r *assessmentRepository) Insert(ctx context.Context, result *model.AssessmentResult) error {
	_, err := r.collection.InsertOne(ctx, result)
	return err
}

func (r *assessmentRepository) GetByID(ctx context.Context, assessmentID string) (*model.AssessmentResult, error) {
	var result model.AssessmentResult
	err := r.collection.FindOne(ctx, bson.M{"assessmentId": assessmentID}).Decode(&result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assessmentRepository) GetBySubmission(ctx context.Context, submissionID string) (*model.AssessmentResult, error) {
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})
	var result model.AssessmentResult
	err := r.collection.FindOne(ctx, bson.M{"submissionId": submissionID}, opts).Decode(&result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assessmentRepository) ListBySurvey(ctx context.Context, surveyID string, limit int) ([]*model.AssessmentResult, error) {
	return r.list(ctx, bson.M{"surveyId": surveyID}, limit)
}

func (r *assessmentRepository) ListByIdentifier(ctx context.Context, identifier string, limit int) ([]*model.AssessmentResult, error) {
	return r.list(ctx, bson.M{"identifier": identifier}, limit)
}

func (r *assessmentRepository) list(ctx context.Context, filter bson.M, limit int) ([]*model.AssessmentResult, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.AssessmentResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// memoryAssessmentRepository is an in-memory store for tests and
// single-node development.
type memoryAssessmentRepository struct {
	mu      sync.RWMutex
	results []*model.AssessmentResult
}

func NewMemoryAssessmentRepository() AssessmentRepository {
	return &memoryAssessmentRepository{}
}

func (r *memoryAssessmentRepository) Insert(_ context.Context, result *model.AssessmentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *result
	r.results = append(r.results, &clone)
	return nil
}

func (r *memoryAssessmentRepository) GetByID(_ context.Context, assessmentID string) (*model.AssessmentResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, result := range r.results {
		if result.AssessmentID == assessmentID {
			clone := *result
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryAssessmentRepository) GetBySubmission(_ context.Context, submissionID string) (*model.AssessmentResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *model.AssessmentResult
	for _, result := range r.results {
		if result.SubmissionID != submissionID {
			continue
		}
		if latest == nil || result.CreatedAt.After(latest.CreatedAt) {
			latest = result
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *memoryAssessmentRepository) ListBySurvey(_ context.Context, surveyID string, limit int) ([]*model.AssessmentResult, error) {
	return r.filter(func(result *model.AssessmentResult) bool {
		return result.SurveyID == surveyID
	}, limit)
}

func (r *memoryAssessmentRepository) ListByIdentifier(_ context.Context, identifier string, limit int) ([]*model.AssessmentResult, error) {
	return r.filter(func(result *model.AssessmentResult) bool {
		return result.Identifier == identifier
	}, limit)
}

func (r *memoryAssessmentRepository) filter(keep func(*model.AssessmentResult) bool, limit int) ([]*model.AssessmentResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*model.AssessmentResult
	for _, result := range r.results {
		if keep(result) {
			clone := *result
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
