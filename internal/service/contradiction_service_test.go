package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

var consistencyAnswers = []model.Answer{
	{QuestionID: "q1", Question: "How old are you?", Response: "I am 19."},
	{QuestionID: "q2", Question: "How long have you driven?", Response: "Thirty years."},
}

// geminiStub wraps payloads in the Gemini candidates envelope, serving
// one per request in order and repeating the last.
func geminiStub(t *testing.T, payloads ...string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := payloads[len(payloads)-1]
		if calls < len(payloads) {
			payload = payloads[calls]
		}
		calls++
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": payload}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	return srv, &calls
}

func stubConfig(baseURL string) *config.AIConfig {
	return &config.AIConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Models:         config.GeminiModels{Light: "light-model", Deep: "deep-model"},
		LightTimeoutMS: 2000,
		DeepTimeoutMS:  2000,
	}
}

func TestCheckConsistencyValidResponse(t *testing.T) {
	srv, _ := geminiStub(t, `{
		"hasContradictions": true,
		"contradictions": [
			{"description": "age 19 conflicts with 30 years of driving", "severity": "high"},
			{"description": "minor wording drift", "severity": "low"}
		],
		"consistencyScore": 0.2,
		"reasoning": "temporal impossibility"
	}`)
	defer srv.Close()

	svc := NewContradictionService(stubConfig(srv.URL))
	report, signals, calls, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 3)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if report.ConsistencyScore != 0.2 {
		t.Errorf("consistencyScore = %v, want 0.2", report.ConsistencyScore)
	}
	if len(signals) != 1 {
		t.Fatalf("signals = %d, want 1", len(signals))
	}
	sig := signals[0]
	if sig.CheckID != model.CheckContradictionBasic {
		t.Errorf("checkId = %s, want contradiction_basic at tier 3", sig.CheckID)
	}
	if sig.Score != 0.9 {
		t.Errorf("score = %v, want 0.9 for high severity", sig.Score)
	}
	if sig.Passed {
		t.Error("signal should not pass with a high-severity contradiction")
	}
}

func TestCheckConsistencyDeepModelAtTierFive(t *testing.T) {
	srv, _ := geminiStub(t, `{
		"hasContradictions": true,
		"contradictions": [{"description": "conflict", "severity": "medium"}],
		"consistencyScore": 0.5
	}`)
	defer srv.Close()

	svc := NewContradictionService(stubConfig(srv.URL))
	_, signals, _, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 5)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if len(signals) != 1 || signals[0].CheckID != model.CheckContradictionFull {
		t.Fatalf("signals = %+v, want one contradiction_full", signals)
	}
	if signals[0].Score != 0.5 {
		t.Errorf("score = %v, want 0.5 for medium severity", signals[0].Score)
	}
}

func TestCheckConsistencyRetriesOnceThenSucceeds(t *testing.T) {
	srv, calls := geminiStub(t,
		`not json at all`,
		`{"hasContradictions": false, "contradictions": [], "consistencyScore": 0.9}`,
	)
	defer srv.Close()

	svc := NewContradictionService(stubConfig(srv.URL))
	report, signals, billed, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 3)
	if err != nil {
		t.Fatalf("CheckConsistency after retry: %v", err)
	}
	if *calls != 2 || billed != 2 {
		t.Errorf("server calls = %d, billed = %d, want 2 and 2", *calls, billed)
	}
	if report.HasContradictions || len(signals) != 0 {
		t.Errorf("consistent answers should yield no signals, got %+v", signals)
	}
}

func TestCheckConsistencyDegradesAfterSecondFailure(t *testing.T) {
	srv, calls := geminiStub(t, `{"unexpected": "shape"}`)
	defer srv.Close()

	svc := NewContradictionService(stubConfig(srv.URL))
	_, _, billed, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 3)
	if err == nil {
		t.Fatal("expected degradation error after two malformed responses")
	}
	if *calls != 2 || billed != 2 {
		t.Errorf("server calls = %d, billed = %d, want 2 and 2", *calls, billed)
	}
}

func TestCheckConsistencyRejectsInconsistentFlag(t *testing.T) {
	// hasContradictions true with an empty list violates the contract.
	srv, _ := geminiStub(t, `{"hasContradictions": true, "contradictions": [], "consistencyScore": 0.8}`)
	defer srv.Close()

	svc := NewContradictionService(stubConfig(srv.URL))
	if _, _, _, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 3); err == nil {
		t.Fatal("contract violation was accepted")
	}
}

func TestCheckConsistencyDisabledWithoutKey(t *testing.T) {
	svc := NewContradictionService(&config.AIConfig{LightTimeoutMS: 100, DeepTimeoutMS: 100})
	report, signals, calls, err := svc.CheckConsistency(context.Background(), consistencyAnswers, 5)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if report != nil || signals != nil || calls != 0 {
		t.Errorf("disabled service must not call out, got report=%v signals=%v calls=%d", report, signals, calls)
	}
}
