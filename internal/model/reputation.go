package model

import "time"

// TrustTier buckets a reputation score for reporting.
type TrustTier string

const (
	TierTrusted    TrustTier = "trusted"
	TierGood       TrustTier = "good"
	TierNeutral    TrustTier = "neutral"
	TierSuspicious TrustTier = "suspicious"
	TierBlocked    TrustTier = "blocked"
)

// ReputationProfile is the persisted history for one identifier
// (hashed email, device fingerprint hash, or IP). A brand new
// identifier gets the neutral profile: score 0.5, empty history.
type ReputationProfile struct {
	Identifier      string      `json:"identifier" bson:"identifier"`
	Score           float64     `json:"score" bson:"score"`
	SubmissionCount int         `json:"submissionCount" bson:"submissionCount"`
	FlaggedCount    int         `json:"flaggedCount" bson:"flaggedCount"`
	LegitimateCount int         `json:"legitimateCount" bson:"legitimateCount"`
	FirstSeen       time.Time   `json:"firstSeen" bson:"firstSeen"`
	LastSeen        time.Time   `json:"lastSeen" bson:"lastSeen"`
	RecentRisks     []float64   `json:"recentRisks" bson:"recentRisks"`
	Submissions     []time.Time `json:"submissions" bson:"submissions"`
	SurveyIDs       []string    `json:"surveyIds,omitempty" bson:"surveyIds,omitempty"`
	Violations      []string    `json:"violations,omitempty" bson:"violations,omitempty"`
	Blocked         bool        `json:"blocked" bson:"blocked"`
}

// DiversityRatio is distinct surveys over total submissions. A ratio
// near zero means the identifier hammers the same survey.
func (p *ReputationProfile) DiversityRatio() float64 {
	if p.SubmissionCount == 0 {
		return 1
	}
	return float64(len(p.SurveyIDs)) / float64(p.SubmissionCount)
}

// NewNeutralProfile returns the default profile for an unseen
// identifier.
func NewNeutralProfile(identifier string) *ReputationProfile {
	now := time.Now().UTC()
	return &ReputationProfile{
		Identifier: identifier,
		Score:      0.5,
		FirstSeen:  now,
		LastSeen:   now,
	}
}

// Tier maps the profile to its trust tier.
func (p *ReputationProfile) Tier() TrustTier {
	if p.Blocked {
		return TierBlocked
	}
	switch {
	case p.Score >= 0.8:
		return TierTrusted
	case p.Score >= 0.6:
		return TierGood
	case p.Score >= 0.4:
		return TierNeutral
	default:
		return TierSuspicious
	}
}

// VelocityPerHour counts submissions recorded within the hour before
// now.
func (p *ReputationProfile) VelocityPerHour(now time.Time) int {
	cutoff := now.Add(-time.Hour)
	n := 0
	for _, t := range p.Submissions {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// BlocklistVerdict explains a blocklist decision.
type BlocklistVerdict struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}
