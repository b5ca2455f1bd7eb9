package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
	"surveycipher/internal/repository"
	"surveycipher/internal/service"
)

func newTestHandler() *AssessHandler {
	reputation := service.NewReputationService(repository.NewMemoryReputationRepository())
	stats := service.NewStatsService(repository.NewMemoryAssessmentRepository(), nil, nil, nil)
	assessor := service.NewAssessorService(nil, nil, reputation, &config.FusionConfig{Prior: 0.15}, stats)
	return NewAssessHandler(assessor, stats, nil)
}

func humanTelemetry() *model.BehavioralMetrics {
	return &model.BehavioralMetrics{
		MouseMovements: []model.MouseEvent{
			{X: 100, Y: 100, Timestamp: 500},
			{X: 130, Y: 145, Timestamp: 560},
			{X: 180, Y: 160, Timestamp: 640},
			{X: 210, Y: 230, Timestamp: 710},
			{X: 300, Y: 250, Timestamp: 800},
		},
		TotalDurationMS: 45000,
	}
}

func postAssess(t *testing.T, h *AssessHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/assess", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.Assess(rec, req)
	return rec
}

func TestAssessEndpointScoresSubmission(t *testing.T) {
	h := newTestHandler()

	rec := postAssess(t, h, &model.AssessmentRequest{
		SubmissionID: "sub-1",
		Tier:         1,
		Telemetry:    humanTelemetry(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result model.AssessmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.AssessmentID == "" || result.Tier != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.RiskLevel == "" {
		t.Error("riskLevel missing")
	}
}

func TestAssessEndpointRejectsBadRequests(t *testing.T) {
	h := newTestHandler()

	cases := map[string]interface{}{
		"invalid tier": &model.AssessmentRequest{
			SubmissionID: "sub-1", Tier: 9, Telemetry: humanTelemetry(),
		},
		"no telemetry": &model.AssessmentRequest{
			SubmissionID: "sub-1", Tier: 1,
		},
	}
	for name, body := range cases {
		if rec := postAssess(t, h, body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/assess", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	h.Assess(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestGetAssessmentRoundTrip(t *testing.T) {
	h := newTestHandler()

	rec := postAssess(t, h, &model.AssessmentRequest{
		SubmissionID: "sub-1",
		Tier:         1,
		Telemetry:    humanTelemetry(),
	})
	var created model.AssessmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/"+created.AssessmentID, nil)
	req = mux.SetURLVars(req, map[string]string{"assessmentId": created.AssessmentID})
	getRec := httptest.NewRecorder()
	h.GetAssessment(getRec, req)

	if getRec.Code != http.StatusOK {
		t.Fatalf("status = %d", getRec.Code)
	}
	var fetched model.AssessmentResult
	if err := json.Unmarshal(getRec.Body.Bytes(), &fetched); err != nil {
		t.Fatal(err)
	}
	if fetched.AssessmentID != created.AssessmentID {
		t.Errorf("fetched %s, want %s", fetched.AssessmentID, created.AssessmentID)
	}
}

func TestGetAssessmentNotFound(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"assessmentId": "missing"})
	rec := httptest.NewRecorder()
	h.GetAssessment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
