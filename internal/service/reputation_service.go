package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"surveycipher/internal/cache"
	"surveycipher/internal/model"
	"surveycipher/internal/repository"
)

const (
	recentRiskWindow     = 50
	submissionWindow     = 200
	blockRiskScore       = 0.9
	blockFlaggedCount    = 10
	blockVelocityPerHour = 100
)

// ReputationService owns all reads and writes of reputation profiles.
// Updates to one identifier are serialized with a per-identifier lock;
// different identifiers proceed in parallel. Store failures degrade to
// a neutral profile and never block an assessment.
type ReputationService struct {
	repo      repository.ReputationRepository
	blocklist cache.BlocklistCache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReputationService(repo repository.ReputationRepository) *ReputationService {
	return &ReputationService{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// SetBlocklistCache injects the Redis mirror consulted by hot-path
// membership checks.
func (s *ReputationService) SetBlocklistCache(c cache.BlocklistCache) {
	s.blocklist = c
}

func (s *ReputationService) lockFor(identifier string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[identifier]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identifier] = l
	}
	return l
}

// Get returns the stored profile, or a neutral default for an unseen
// identifier or an unavailable store.
func (s *ReputationService) Get(ctx context.Context, identifier string) *model.ReputationProfile {
	profile, err := s.repo.Get(ctx, identifier)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("[Reputation] store read failed for %s: %v", identifier, err)
		}
		return model.NewNeutralProfile(identifier)
	}
	return profile
}

// Update appends one assessment outcome to the identifier's history
// and recomputes the rolling aggregates. History is append-only;
// counters never roll back.
func (s *ReputationService) Update(ctx context.Context, identifier, surveyID string, fraudScore float64, wasFlagged bool) {
	l := s.lockFor(identifier)
	l.Lock()
	defer l.Unlock()

	profile := s.Get(ctx, identifier)
	now := time.Now().UTC()

	profile.SubmissionCount++
	if wasFlagged {
		profile.FlaggedCount++
	} else {
		profile.LegitimateCount++
	}
	profile.LastSeen = now

	profile.RecentRisks = append(profile.RecentRisks, fraudScore)
	if len(profile.RecentRisks) > recentRiskWindow {
		profile.RecentRisks = profile.RecentRisks[len(profile.RecentRisks)-recentRiskWindow:]
	}
	profile.Submissions = append(profile.Submissions, now)
	if len(profile.Submissions) > submissionWindow {
		profile.Submissions = profile.Submissions[len(profile.Submissions)-submissionWindow:]
	}
	if surveyID != "" && !contains(profile.SurveyIDs, surveyID) {
		profile.SurveyIDs = append(profile.SurveyIDs, surveyID)
	}

	// Trust score is the complement of the rolling fraud average.
	profile.Score = 1 - meanFloat(profile.RecentRisks)

	verdict := blocklistVerdict(profile, now)
	if verdict.Blocked && !profile.Blocked {
		profile.Blocked = true
		profile.Violations = append(profile.Violations, verdict.Reason)
		if s.blocklist != nil {
			if err := s.blocklist.SetVerdict(ctx, identifier, &verdict); err != nil {
				log.Printf("[Reputation] blocklist cache write failed for %s: %v", identifier, err)
			}
		}
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		// The assessment result already went out; losing one history
		// entry is acceptable.
		log.Printf("[Reputation] store write failed for %s: %v", identifier, err)
	}
}

// IsBlocklisted applies the fixed blocklist rules to the identifier's
// current profile.
func (s *ReputationService) IsBlocklisted(ctx context.Context, identifier string) model.BlocklistVerdict {
	if s.blocklist != nil {
		verdict, err := s.blocklist.GetVerdict(ctx, identifier)
		if err != nil {
			log.Printf("[Reputation] blocklist cache read failed for %s: %v", identifier, err)
		}
		if verdict != nil {
			return *verdict
		}
	}
	profile := s.Get(ctx, identifier)
	if profile.Blocked {
		return model.BlocklistVerdict{Blocked: true, Reason: "previously blocked"}
	}
	return blocklistVerdict(profile, time.Now().UTC())
}

// ListBlocked returns currently blocked profiles for review.
func (s *ReputationService) ListBlocked(ctx context.Context, limit int64) ([]*model.ReputationProfile, error) {
	return s.repo.ListBlocked(ctx, limit)
}

// EvaluateIdentifier reads history and emits reputation signals for
// the assessment. The profile read never fails the pipeline.
func (s *ReputationService) EvaluateIdentifier(ctx context.Context, identifier string, tierLevel int) ([]model.EvidenceSignal, *model.ReputationProfile, error) {
	if identifier == "" {
		return nil, nil, nil
	}

	profile := s.Get(ctx, identifier)
	now := time.Now().UTC()

	var signals []model.EvidenceSignal
	emit := func(id model.CheckID, score float64, details string) error {
		spec, ok := model.LookupCheck(id)
		if !ok || spec.MinTier > tierLevel {
			return nil
		}
		sig, err := model.NewSignal(id, score, details)
		if err != nil {
			return err
		}
		signals = append(signals, sig)
		return nil
	}

	risk := meanFloat(profile.RecentRisks)
	if profile.Blocked {
		if err := emit(model.CheckBadReputation, 0.95, "identifier is blocklisted"); err != nil {
			return nil, nil, err
		}
	} else if profile.SubmissionCount >= 3 && risk > 0.7 {
		if err := emit(model.CheckBadReputation, risk,
			fmt.Sprintf("rolling fraud score %.2f over %d submissions", risk, profile.SubmissionCount)); err != nil {
			return nil, nil, err
		}
	}

	if v := profile.VelocityPerHour(now); v > blockVelocityPerHour {
		if err := emit(model.CheckSubmissionVelocity, 0.85,
			fmt.Sprintf("%d submissions in the last hour", v)); err != nil {
			return nil, nil, err
		}
	}

	return signals, profile, nil
}

func blocklistVerdict(p *model.ReputationProfile, now time.Time) model.BlocklistVerdict {
	risk := meanFloat(p.RecentRisks)
	switch {
	case risk > blockRiskScore:
		return model.BlocklistVerdict{Blocked: true, Reason: fmt.Sprintf("rolling fraud score %.2f", risk)}
	case p.FlaggedCount > blockFlaggedCount:
		return model.BlocklistVerdict{Blocked: true, Reason: fmt.Sprintf("%d flagged submissions", p.FlaggedCount)}
	case p.VelocityPerHour(now) > blockVelocityPerHour:
		return model.BlocklistVerdict{Blocked: true, Reason: fmt.Sprintf("%d submissions/hour", p.VelocityPerHour(now))}
	default:
		return model.BlocklistVerdict{}
	}
}

func meanFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
