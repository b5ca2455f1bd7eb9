package service

import (
	"fmt"
	"math"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

// scoreClamp keeps logit finite at score 0 and 1.
const scoreClamp = 1e-6

// FusionEngine combines evidence signals into a posterior fraud
// probability via additive log-odds. Many weak concordant signals
// compound; a single highly reliable contradicting signal can still
// dominate, which naive averaging gets wrong.
type FusionEngine struct {
	prior float64
}

func NewFusionEngine(cfg *config.FusionConfig) *FusionEngine {
	return &FusionEngine{prior: cfg.Prior}
}

// Fuse validates every signal, then accumulates reliability-weighted
// log-odds on top of the prior. An invalid signal aborts the whole
// fusion with ErrInvalidSignal; it is never clamped into range.
// Zero signals return the prior with confidence 0.
func (e *FusionEngine) Fuse(signals []model.EvidenceSignal) (probability, confidence float64, err error) {
	for _, sig := range signals {
		if verr := sig.Validate(); verr != nil {
			return 0, 0, fmt.Errorf("fusion precondition: %w", verr)
		}
	}

	if len(signals) == 0 {
		return e.prior, 0, nil
	}

	logOdds := logit(e.prior)
	counted := 0
	categories := make(map[model.CheckCategory]bool)
	for _, sig := range signals {
		if sig.Reliability == 0 {
			continue
		}
		score := math.Min(1-scoreClamp, math.Max(scoreClamp, sig.Score))
		logOdds += sig.Reliability * logit(score)
		counted++
		categories[sig.Category] = true
	}

	probability = logistic(logOdds)
	confidence = math.Min(1, 0.25*float64(len(categories))+0.1*float64(counted))
	return probability, confidence, nil
}

// Prior returns the configured base fraud rate.
func (e *FusionEngine) Prior() float64 {
	return e.prior
}

// RiskLevelFor maps probability and confidence to the discrete verdict.
// Critical requires corroboration; a high probability alone without
// confident evidence stays at high.
func RiskLevelFor(probability, confidence float64) model.RiskLevel {
	switch {
	case probability >= 0.85 && confidence >= 0.6:
		return model.RiskCritical
	case probability >= 0.65:
		return model.RiskHigh
	case probability >= 0.35:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func logistic(l float64) float64 {
	return 1 / (1 + math.Exp(-l))
}
