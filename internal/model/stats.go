package model

import "time"

// SurveyStats is the rolling per-survey assessment aggregate kept in
// Redis and served to monitoring dashboards.
type SurveyStats struct {
	SurveyID        string  `json:"surveyId"`
	AssessmentCount int     `json:"assessmentCount"`
	LowCount        int     `json:"lowCount"`
	MediumCount     int     `json:"mediumCount"`
	HighCount       int     `json:"highCount"`
	CriticalCount   int     `json:"criticalCount"`
	ProbabilitySum  float64 `json:"probabilitySum"`
	AICallsMade     int     `json:"aiCallsMade"`
	EstimatedCost   float64 `json:"estimatedCost"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// MeanProbability is the average fused probability across all counted
// assessments, 0 when nothing has been scored yet.
func (s *SurveyStats) MeanProbability() float64 {
	if s.AssessmentCount == 0 {
		return 0
	}
	return s.ProbabilitySum / float64(s.AssessmentCount)
}

// FlaggedRatio is the share of assessments that came back high or
// critical.
func (s *SurveyStats) FlaggedRatio() float64 {
	if s.AssessmentCount == 0 {
		return 0
	}
	return float64(s.HighCount+s.CriticalCount) / float64(s.AssessmentCount)
}

// Record folds one finished assessment into the aggregate.
func (s *SurveyStats) Record(result *AssessmentResult) {
	s.AssessmentCount++
	s.ProbabilitySum += result.FraudProbability
	s.AICallsMade += result.AICallsMade
	s.EstimatedCost += result.EstimatedCost
	switch result.RiskLevel {
	case RiskLow:
		s.LowCount++
	case RiskMedium:
		s.MediumCount++
	case RiskHigh:
		s.HighCount++
	case RiskCritical:
		s.CriticalCount++
	}
}
