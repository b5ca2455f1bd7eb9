package model

import "time"

// RiskLevel is the discrete verdict derived from the fused probability
// and confidence.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Answer is one survey response pair.
type Answer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Response   string `json:"response"`
}

// AssessmentRequest is a single submission to score. Tier selects how
// deep the check plan goes (1 cheapest, 5 most thorough).
type AssessmentRequest struct {
	SubmissionID string             `json:"submissionId"`
	SurveyID     string             `json:"surveyId,omitempty"`
	SessionID    string             `json:"sessionId,omitempty"`
	Identifier   string             `json:"identifier,omitempty"`
	IP           string             `json:"ip,omitempty"`
	Tier         int                `json:"tier"`
	Answers      []Answer           `json:"answers,omitempty"`
	Telemetry    *BehavioralMetrics `json:"telemetry,omitempty"`
	Device       *DeviceFingerprint `json:"device,omitempty"`
}

// AssessmentResult is the full verdict for one submission.
type AssessmentResult struct {
	AssessmentID     string                    `json:"assessmentId" bson:"assessmentId"`
	SubmissionID     string                    `json:"submissionId" bson:"submissionId"`
	SurveyID         string                    `json:"surveyId,omitempty" bson:"surveyId,omitempty"`
	Identifier       string                    `json:"identifier,omitempty" bson:"identifier,omitempty"`
	Tier             int                       `json:"tier"`
	FraudProbability float64                   `json:"fraudProbability"`
	Confidence       float64                   `json:"confidence"`
	RiskLevel        RiskLevel                 `json:"riskLevel"`
	Signals          []EvidenceSignal          `json:"signals"`
	CategoryScores   map[CheckCategory]float64 `json:"categoryScores"`
	Flags            []string                  `json:"flags"`
	HumanIndicators  []string                  `json:"humanIndicators,omitempty"`
	Diagnostics      []string                  `json:"diagnostics,omitempty"`
	BehavioralStats  *BehavioralSummary        `json:"behavioralStats,omitempty"`
	AICallsMade      int                       `json:"aiCallsMade"`
	EstimatedCost    float64                   `json:"estimatedCost"`
	ProcessingTimeMS int64                     `json:"processingTimeMs"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// TierCostUSD is the estimated spend per assessment at each tier.
// Tiers 1 and 2 run no paid model calls.
var TierCostUSD = map[int]float64{
	1: 0,
	2: 0,
	3: 0.002,
	4: 0.01,
	5: 0.05,
}
