package tier

import (
	"errors"
	"testing"

	"surveycipher/internal/model"
)

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		tier int
		ok   bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	} {
		err := Validate(tc.tier)
		if tc.ok && err != nil {
			t.Errorf("Validate(%d) = %v, want nil", tc.tier, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("Validate(%d) = nil, want error", tc.tier)
			} else if !errors.Is(err, model.ErrInvalidTier) {
				t.Errorf("Validate(%d) = %v, want ErrInvalidTier", tc.tier, err)
			}
		}
	}
}

func TestPlanIsAdditive(t *testing.T) {
	for lo := Min; lo < Max; lo++ {
		lower := Plan(lo)
		higher := make(map[model.CheckID]bool)
		for _, id := range Plan(lo + 1) {
			higher[id] = true
		}
		for _, id := range lower {
			if !higher[id] {
				t.Errorf("tier %d schedules %s but tier %d does not", lo, id, lo+1)
			}
		}
	}
}

func TestPlanGrowsWithTier(t *testing.T) {
	prev := 0
	for tr := Min; tr <= Max; tr++ {
		n := len(Plan(tr))
		if n < prev {
			t.Fatalf("tier %d plan shrank: %d < %d", tr, n, prev)
		}
		prev = n
	}
	if len(Plan(Max)) != len(model.AllChecks()) {
		t.Errorf("top tier schedules %d checks, registry holds %d", len(Plan(Max)), len(model.AllChecks()))
	}
}

func TestTierGates(t *testing.T) {
	if UsesAI(2) {
		t.Error("tier 2 must not call paid models")
	}
	if !UsesAI(3) {
		t.Error("tier 3 must call paid models")
	}
	if UsesNetwork(3) {
		t.Error("tier 3 must not run network lookups")
	}
	if !UsesNetwork(4) {
		t.Error("tier 4 must run network lookups")
	}
	if Includes(1, model.CheckWebDriverDetected) {
		t.Error("device checks start at tier 2")
	}
	if !Includes(1, model.CheckRoboticMovement) {
		t.Error("core behavioral checks start at tier 1")
	}
}
