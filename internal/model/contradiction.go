package model

// ContradictionSeverity grades a single detected contradiction.
type ContradictionSeverity string

const (
	SeverityLow    ContradictionSeverity = "low"
	SeverityMedium ContradictionSeverity = "medium"
	SeverityHigh   ContradictionSeverity = "high"
)

// Contradiction is one inconsistency the language model found between
// two or more answers.
type Contradiction struct {
	Description string                `json:"description"`
	Severity    ContradictionSeverity `json:"severity"`
}

// ContradictionReport is the validated output of a contradiction
// analysis call. ConsistencyScore is 1 for fully coherent answers and
// 0 for completely incoherent ones.
type ContradictionReport struct {
	HasContradictions bool            `json:"hasContradictions"`
	Contradictions    []Contradiction `json:"contradictions"`
	ConsistencyScore  float64         `json:"consistencyScore"`
	Reasoning         string          `json:"reasoning,omitempty"`
}
