package detector

import (
	"testing"

	"surveycipher/internal/model"
)

func TestStraightLining(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", Response: "Agree"},
		{QuestionID: "q2", Response: "Agree"},
		{QuestionID: "q3", Response: "agree"},
		{QuestionID: "q4", Response: "Agree "},
		{QuestionID: "q5", Response: "Agree"},
	}
	signals, _, err := NewContentChecker().Check(answers, 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasCheck(signals, model.CheckStraightLining) {
		t.Error("straight_line_answers did not fire on identical responses")
	}
}

func TestMinimalEffort(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", Response: "ok"},
		{QuestionID: "q2", Response: "yes"},
		{QuestionID: "q3", Response: "no"},
		{QuestionID: "q4", Response: "idk"},
	}
	signals, _, err := NewContentChecker().Check(answers, 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasCheck(signals, model.CheckMinimalEffort) {
		t.Error("minimal_effort did not fire on one-word answers")
	}
}

func TestAIPhraseDetectionGatedByTier(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", Response: "It's important to note that my commute takes an hour each way."},
		{QuestionID: "q2", Response: "In conclusion, I would rate the product favorably overall."},
		{QuestionID: "q3", Response: "I take the bus most days because parking downtown is hopeless."},
	}

	signals, _, err := NewContentChecker().Check(answers, 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if hasCheck(signals, model.CheckAIContentBasic) {
		t.Error("ai_content_basic fired at tier 2")
	}

	signals, _, err = NewContentChecker().Check(answers, 3)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasCheck(signals, model.CheckAIContentBasic) {
		t.Error("ai_content_basic did not fire at tier 3")
	}
}

func TestVariedAnswersProduceNoSignals(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", Response: "I usually cycle to work, takes about twenty minutes along the river."},
		{QuestionID: "q2", Response: "Mostly groceries and the odd takeaway on Fridays."},
		{QuestionID: "q3", Response: "Twice a month, sometimes more if the weather holds."},
	}
	signals, hints, err := NewContentChecker().Check(answers, 5)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("varied answers produced signals: %v", signals)
	}
	if len(hints) == 0 {
		t.Error("substantive answers should yield a human indicator")
	}
}
