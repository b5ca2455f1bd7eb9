// Package tier derives the check plan for each assessment tier from
// the check registry. Plans are additive: every check scheduled at
// tier N is also scheduled at every tier above N, so raising the tier
// never removes evidence.
package tier

import (
	"fmt"
	"sort"

	"surveycipher/internal/model"
)

const (
	Min = 1
	Max = 5
)

// Validate rejects tiers outside [1,5].
func Validate(t int) error {
	if t < Min || t > Max {
		return fmt.Errorf("%w: got %d", model.ErrInvalidTier, t)
	}
	return nil
}

// Plan returns the checks scheduled at the given tier, sorted by ID
// for stable output. The caller must have validated the tier.
func Plan(t int) []model.CheckID {
	var ids []model.CheckID
	for _, id := range model.AllChecks() {
		spec, _ := model.LookupCheck(id)
		if spec.MinTier <= t {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Includes reports whether the tier schedules the given check.
func Includes(t int, id model.CheckID) bool {
	spec, ok := model.LookupCheck(id)
	return ok && spec.MinTier <= t
}

// UsesAI reports whether the tier runs any paid model calls.
func UsesAI(t int) bool {
	return t >= 3
}

// UsesNetwork reports whether the tier runs network and reputation
// lookups.
func UsesNetwork(t int) bool {
	return t >= 4
}
