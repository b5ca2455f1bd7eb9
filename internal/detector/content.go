package detector

import (
	"fmt"
	"strings"

	"surveycipher/internal/model"
)

// aiPhrases are stock LLM constructions that rarely show up in
// genuine survey answers.
var aiPhrases = []string{
	"as an ai", "it's important to note", "here's a comprehensive",
	"in conclusion", "to summarize", "it's worth noting",
	"from my perspective", "in my opinion as", "i would recommend",
}

const (
	straightLineUniqueRatio = 0.3
	minimalEffortAvgChars   = 5.0
	minimalEffortMinAnswers = 3
	aiPhraseTextMinChars    = 10
)

// ContentChecker runs the lightweight local content heuristics:
// straight-lining, minimal effort, and basic AI-signature matching.
// Deep semantic comparison belongs to the contradiction service, not
// here.
type ContentChecker struct{}

func NewContentChecker() *ContentChecker {
	return &ContentChecker{}
}

func (c *ContentChecker) Check(answers []model.Answer, tierLevel int) ([]model.EvidenceSignal, []string, error) {
	if len(answers) == 0 {
		return nil, nil, nil
	}

	var signals []model.EvidenceSignal
	var hints []string

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

	// Straight-lining: mostly identical responses across questions.
	unique := make(map[string]bool)
	for _, a := range answers {
		unique[strings.TrimSpace(strings.ToLower(a.Response))] = true
	}
	if len(answers) >= minimalEffortMinAnswers &&
		float64(len(unique)) < float64(len(answers))*straightLineUniqueRatio {
		if err := emit(model.CheckStraightLining, 0.75,
			fmt.Sprintf("%d distinct responses across %d questions", len(unique), len(answers))); err != nil {
			return nil, nil, err
		}
	}

	// Minimal effort: consistently tiny free-text answers.
	totalChars := 0
	for _, a := range answers {
		totalChars += len(strings.TrimSpace(a.Response))
	}
	avgChars := float64(totalChars) / float64(len(answers))
	if len(answers) >= minimalEffortMinAnswers && avgChars < minimalEffortAvgChars {
		if err := emit(model.CheckMinimalEffort, 0.6,
			fmt.Sprintf("average answer length %.1f characters", avgChars)); err != nil {
			return nil, nil, err
		}
	} else if avgChars >= 40 {
		hints = append(hints, "substantive free-text answers")
	}

	// Basic AI-signature heuristic. The contradiction service handles
	// the model-backed pass; this only matches stock phrases locally.
	phraseHits := 0
	for _, a := range answers {
		text := strings.ToLower(a.Response)
		if len(text) < aiPhraseTextMinChars {
			continue
		}
		for _, phrase := range aiPhrases {
			if strings.Contains(text, phrase) {
				phraseHits++
				break
			}
		}
	}
	if phraseHits > 0 {
		score := 0.6 + 0.1*float64(phraseHits)
		if score > 0.95 {
			score = 0.95
		}
		if err := emit(model.CheckAIContentBasic, score,
			fmt.Sprintf("%d answers contain stock language-model phrasing", phraseHits)); err != nil {
			return nil, nil, err
		}
	}

	return signals, hints, nil
}
