package service

import (
	"errors"
	"math"
	"testing"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

func newTestEngine() *FusionEngine {
	return NewFusionEngine(&config.FusionConfig{Prior: 0.15})
}

func mustSignal(t *testing.T, id model.CheckID, score float64) model.EvidenceSignal {
	t.Helper()
	sig, err := model.NewSignal(id, score, "")
	if err != nil {
		t.Fatalf("NewSignal(%s, %v): %v", id, score, err)
	}
	return sig
}

func TestFuseZeroSignals(t *testing.T) {
	p, conf, err := newTestEngine().Fuse(nil)
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if p != 0.15 {
		t.Errorf("probability = %v, want prior 0.15", p)
	}
	if conf != 0 {
		t.Errorf("confidence = %v, want 0", conf)
	}
}

func TestFuseZeroReliabilityDoesNotMovePosterior(t *testing.T) {
	sig := model.EvidenceSignal{
		CheckID:     model.CheckWebDriverDetected,
		Category:    model.CategoryDevice,
		Passed:      false,
		Score:       0.99,
		Reliability: 0,
	}
	p, _, err := newTestEngine().Fuse([]model.EvidenceSignal{sig})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if p != 0.15 {
		t.Errorf("probability = %v, want prior 0.15 untouched", p)
	}
}

func TestFuseConcordantSignalsCompound(t *testing.T) {
	engine := newTestEngine()

	one, _, err := engine.Fuse([]model.EvidenceSignal{
		mustSignal(t, model.CheckRoboticMovement, 0.9),
	})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	several, _, err := engine.Fuse([]model.EvidenceSignal{
		mustSignal(t, model.CheckRoboticMovement, 0.9),
		mustSignal(t, model.CheckMouseTeleporting, 0.8),
		mustSignal(t, model.CheckWebDriverDetected, 0.95),
	})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if several <= one {
		t.Errorf("three concordant signals (%v) should exceed one (%v)", several, one)
	}
	if one <= 0.15 {
		t.Errorf("one failing signal (%v) should raise probability above the prior", one)
	}
	if several < 0 || several > 1 {
		t.Errorf("probability %v outside [0,1]", several)
	}
}

func TestFuseExtremeScoresStayFinite(t *testing.T) {
	p, _, err := newTestEngine().Fuse([]model.EvidenceSignal{
		mustSignal(t, model.CheckWebDriverDetected, 1.0),
		mustSignal(t, model.CheckTorDetection, 0.0),
	})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		t.Fatalf("probability = %v, want finite", p)
	}
	if p < 0 || p > 1 {
		t.Errorf("probability %v outside [0,1]", p)
	}
}

func TestFuseRejectsInvalidSignal(t *testing.T) {
	for name, sig := range map[string]model.EvidenceSignal{
		"unknown check": {CheckID: "made_up_check", Score: 0.5, Reliability: 0.5},
		"score above 1": {CheckID: model.CheckVPNDetection, Category: model.CategoryNetwork, Score: 1.2, Reliability: 0.6},
		"inconsistent passed flag": {
			CheckID: model.CheckVPNDetection, Category: model.CategoryNetwork,
			Passed: true, Score: 0.9, Reliability: 0.6,
		},
	} {
		_, _, err := newTestEngine().Fuse([]model.EvidenceSignal{sig})
		if err == nil {
			t.Errorf("%s: Fuse accepted invalid signal", name)
			continue
		}
		if !errors.Is(err, model.ErrInvalidSignal) {
			t.Errorf("%s: err = %v, want ErrInvalidSignal", name, err)
		}
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	for _, tc := range []struct {
		p, conf float64
		want    model.RiskLevel
	}{
		{0.849999, 0.9, model.RiskHigh},
		{0.85, 0.6, model.RiskCritical},
		{0.85, 0.59, model.RiskHigh},
		{0.65, 0.0, model.RiskHigh},
		{0.649999, 0.9, model.RiskMedium},
		{0.35, 0.0, model.RiskMedium},
		{0.349999, 0.9, model.RiskLow},
		{0.0, 0.0, model.RiskLow},
	} {
		if got := RiskLevelFor(tc.p, tc.conf); got != tc.want {
			t.Errorf("RiskLevelFor(%v, %v) = %s, want %s", tc.p, tc.conf, got, tc.want)
		}
	}
}

func TestFuseConfidenceGrowsWithDiversity(t *testing.T) {
	engine := newTestEngine()

	_, narrow, err := engine.Fuse([]model.EvidenceSignal{
		mustSignal(t, model.CheckRoboticMovement, 0.9),
		mustSignal(t, model.CheckMouseTeleporting, 0.8),
	})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	_, diverse, err := engine.Fuse([]model.EvidenceSignal{
		mustSignal(t, model.CheckRoboticMovement, 0.9),
		mustSignal(t, model.CheckWebDriverDetected, 0.95),
	})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if diverse <= narrow {
		t.Errorf("two categories (%v) should beat one category (%v) at equal signal count", diverse, narrow)
	}
}
