package service

import (
	"context"
	"log"

	"surveycipher/internal/cache"
	"surveycipher/internal/model"
	"surveycipher/internal/repository"
)

// statsRebuildWindow caps how many stored assessments a cold rebuild
// reads back.
const statsRebuildWindow = 500

// StatsService persists finished assessments and keeps the monitoring
// surfaces current: the per-survey aggregate, the hot result cache,
// the risk watchlist, and live WebSocket subscribers. It is the sink
// the assessor reports into.
type StatsService struct {
	assessments repository.AssessmentRepository
	stats       cache.StatsCache
	results     cache.ResultCache
	watchlist   cache.WatchlistCache
	broadcaster Broadcaster
}

func NewStatsService(
	assessments repository.AssessmentRepository,
	stats cache.StatsCache,
	results cache.ResultCache,
	watchlist cache.WatchlistCache,
) *StatsService {
	return &StatsService{
		assessments: assessments,
		stats:       stats,
		results:     results,
		watchlist:   watchlist,
	}
}

// SetBroadcaster injects the WebSocket hub
func (s *StatsService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RecordAssessment implements AssessmentSink. Every step degrades
// independently: a dead cache or store never loses the others' writes.
func (s *StatsService) RecordAssessment(ctx context.Context, result *model.AssessmentResult) {
	if s.assessments != nil {
		if err := s.assessments.Insert(ctx, result); err != nil {
			log.Printf("[Stats] persist assessment %s: %v", result.AssessmentID, err)
		}
	}
	if s.results != nil {
		if err := s.results.SetResult(ctx, result); err != nil {
			log.Printf("[Stats] cache result %s: %v", result.AssessmentID, err)
		}
	}
	if s.stats != nil {
		if err := s.stats.RecordAssessment(ctx, result); err != nil {
			log.Printf("[Stats] update survey stats %s: %v", result.SurveyID, err)
		}
	}
	if s.watchlist != nil && result.Identifier != "" {
		if err := s.watchlist.UpdateRisk(ctx, result.Identifier, result.FraudProbability); err != nil {
			log.Printf("[Stats] update watchlist %s: %v", result.Identifier, err)
		}
	}

	if s.broadcaster != nil && result.SurveyID != "" {
		s.broadcaster.BroadcastAssessment(result.SurveyID, result)
		if result.RiskLevel == model.RiskHigh || result.RiskLevel == model.RiskCritical {
			s.broadcaster.BroadcastAlert(result.SurveyID, map[string]interface{}{
				"assessmentId":     result.AssessmentID,
				"submissionId":     result.SubmissionID,
				"identifier":       result.Identifier,
				"riskLevel":        result.RiskLevel,
				"fraudProbability": result.FraudProbability,
				"flags":            result.Flags,
			})
		}
	}
}

// GetSurveyStats returns the cached aggregate, rebuilding it from the
// store when the cache entry has expired.
func (s *StatsService) GetSurveyStats(ctx context.Context, surveyID string) (*model.SurveyStats, error) {
	if s.stats != nil {
		stats, err := s.stats.GetSurveyStats(ctx, surveyID)
		if err != nil {
			log.Printf("[Stats] read survey stats %s: %v", surveyID, err)
		}
		if stats != nil {
			return stats, nil
		}
	}

	stats := &model.SurveyStats{SurveyID: surveyID}
	if s.assessments == nil {
		return stats, nil
	}
	results, err := s.assessments.ListBySurvey(ctx, surveyID, statsRebuildWindow)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		stats.Record(result)
	}
	if s.stats != nil && stats.AssessmentCount > 0 {
		if err := s.stats.SetSurveyStats(ctx, stats); err != nil {
			log.Printf("[Stats] warm survey stats %s: %v", surveyID, err)
		}
	}
	return stats, nil
}

// GetAssessment fetches one result, cache first.
func (s *StatsService) GetAssessment(ctx context.Context, assessmentID string) (*model.AssessmentResult, error) {
	if s.results != nil {
		result, err := s.results.GetResult(ctx, assessmentID)
		if err != nil {
			log.Printf("[Stats] read cached result %s: %v", assessmentID, err)
		}
		if result != nil {
			return result, nil
		}
	}
	if s.assessments == nil {
		return nil, repository.ErrNotFound
	}
	return s.assessments.GetByID(ctx, assessmentID)
}

// ListSurveyAssessments returns the most recent assessments for one
// survey, newest first.
func (s *StatsService) ListSurveyAssessments(ctx context.Context, surveyID string, limit int) ([]*model.AssessmentResult, error) {
	if s.assessments == nil {
		return nil, nil
	}
	return s.assessments.ListBySurvey(ctx, surveyID, limit)
}

// ListIdentifierAssessments returns the most recent assessments tied
// to one identifier, newest first.
func (s *StatsService) ListIdentifierAssessments(ctx context.Context, identifier string, limit int) ([]*model.AssessmentResult, error) {
	if s.assessments == nil {
		return nil, nil
	}
	return s.assessments.ListByIdentifier(ctx, identifier, limit)
}

// Watchlist returns the highest-risk identifiers seen so far.
func (s *StatsService) Watchlist(ctx context.Context, limit int) ([]cache.WatchlistEntry, error) {
	if s.watchlist == nil {
		return nil, nil
	}
	return s.watchlist.TopRisky(ctx, limit)
}
