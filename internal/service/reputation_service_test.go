package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"surveycipher/internal/model"
	"surveycipher/internal/repository"
)

func TestGetReturnsNeutralDefaultForUnseenIdentifier(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	profile := svc.Get(context.Background(), "fp:abc")
	if profile.Score != 0.5 {
		t.Errorf("score = %v, want neutral 0.5", profile.Score)
	}
	if profile.SubmissionCount != 0 || profile.Blocked {
		t.Errorf("unexpected history on fresh profile: %+v", profile)
	}
}

func TestGetIsIdempotentWithoutUpdate(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	ctx := context.Background()
	svc.Update(ctx, "fp:abc", "s1", 0.4, false)

	first := svc.Get(ctx, "fp:abc")
	second := svc.Get(ctx, "fp:abc")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two reads without update differ:\n%+v\n%+v", first, second)
	}
}

func TestUpdateAccumulatesHistory(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	ctx := context.Background()

	svc.Update(ctx, "fp:abc", "s1", 0.2, false)
	svc.Update(ctx, "fp:abc", "s2", 0.8, true)

	profile := svc.Get(ctx, "fp:abc")
	if profile.SubmissionCount != 2 {
		t.Errorf("submissionCount = %d, want 2", profile.SubmissionCount)
	}
	if profile.FlaggedCount != 1 || profile.LegitimateCount != 1 {
		t.Errorf("flagged/legitimate = %d/%d, want 1/1", profile.FlaggedCount, profile.LegitimateCount)
	}
	if got := profile.Score; got < 0.49 || got > 0.51 {
		t.Errorf("trust score = %v, want 0.5 for mean risk 0.5", got)
	}
	if len(profile.SurveyIDs) != 2 {
		t.Errorf("surveyIds = %v, want two distinct surveys", profile.SurveyIDs)
	}
}

func TestBlocklistRules(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	ctx := context.Background()

	// Consistently fraudulent history crosses the risk rule.
	for i := 0; i < 5; i++ {
		svc.Update(ctx, "fp:bad", "s1", 0.95, true)
	}
	if v := svc.IsBlocklisted(ctx, "fp:bad"); !v.Blocked {
		t.Error("high rolling risk identifier not blocklisted")
	}

	// Eleven flagged submissions cross the flag-count rule even at
	// moderate scores.
	for i := 0; i < 11; i++ {
		svc.Update(ctx, "fp:flagged", "s1", 0.5, true)
	}
	if v := svc.IsBlocklisted(ctx, "fp:flagged"); !v.Blocked {
		t.Error("repeatedly flagged identifier not blocklisted")
	}

	if v := svc.IsBlocklisted(ctx, "fp:clean"); v.Blocked {
		t.Errorf("fresh identifier blocklisted: %+v", v)
	}
}

func TestEvaluateIdentifierSignals(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		svc.Update(ctx, "fp:risky", "s1", 0.85, true)
	}

	signals, profile, err := svc.EvaluateIdentifier(ctx, "fp:risky", 4)
	if err != nil {
		t.Fatalf("EvaluateIdentifier: %v", err)
	}
	if profile == nil {
		t.Fatal("expected profile")
	}
	if !signalPresent(signals, model.CheckBadReputation) {
		t.Error("bad_reputation did not fire on a risky history")
	}

	// Reputation checks stay silent below tier 4.
	signals, _, err = svc.EvaluateIdentifier(ctx, "fp:risky", 2)
	if err != nil {
		t.Fatalf("EvaluateIdentifier: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("reputation signals emitted at tier 2: %v", signals)
	}
}

type failingRepo struct{}

func (failingRepo) Get(context.Context, string) (*model.ReputationProfile, error) {
	return nil, errors.New("store down")
}
func (failingRepo) Upsert(context.Context, *model.ReputationProfile) error {
	return errors.New("store down")
}
func (failingRepo) ListBlocked(context.Context, int64) ([]*model.ReputationProfile, error) {
	return nil, errors.New("store down")
}

func TestStoreUnavailabilityDegradesToNeutral(t *testing.T) {
	svc := NewReputationService(failingRepo{})
	profile := svc.Get(context.Background(), "fp:abc")
	if profile.Score != 0.5 {
		t.Errorf("score = %v, want neutral 0.5 when store is down", profile.Score)
	}

	// Update must not panic or block when the store is down.
	svc.Update(context.Background(), "fp:abc", "s1", 0.3, false)
}

func TestConcurrentUpdatesSameIdentifier(t *testing.T) {
	svc := NewReputationService(repository.NewMemoryReputationRepository())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Update(ctx, "fp:abc", "s1", 0.5, false)
		}()
	}
	wg.Wait()

	profile := svc.Get(ctx, "fp:abc")
	if profile.SubmissionCount != 20 {
		t.Errorf("submissionCount = %d, want 20 (lost update)", profile.SubmissionCount)
	}
}
