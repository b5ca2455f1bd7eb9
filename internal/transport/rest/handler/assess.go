package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surveycipher/internal/cache"
	"surveycipher/internal/model"
	"surveycipher/internal/repository"
	"surveycipher/internal/service"
)

const defaultListLimit = 50

// AssessHandler handles submission scoring endpoints
type AssessHandler struct {
	assessor  *service.AssessorService
	stats     *service.StatsService
	telemetry cache.TelemetryCache
}

// NewAssessHandler creates a new assess handler
func NewAssessHandler(assessor *service.AssessorService, stats *service.StatsService, telemetry cache.TelemetryCache) *AssessHandler {
	return &AssessHandler{
		assessor:  assessor,
		stats:     stats,
		telemetry: telemetry,
	}
}

// Assess handles POST /v1/assess
func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req model.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A submission without inline telemetry can fall back to the
	// session's streamed snapshot.
	if !req.Telemetry.HasAnyStream() && req.SessionID != "" && h.telemetry != nil {
		snapshot, err := h.telemetry.Get(r.Context(), req.SessionID)
		if err != nil {
			log.Printf("[Assess] telemetry snapshot read failed for %s: %v", req.SessionID, err)
		}
		if snapshot != nil {
			req.Telemetry = snapshot
		}
	}

	result, err := h.assessor.Assess(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTier), errors.Is(err, model.ErrNoTelemetry):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetAssessment handles GET /v1/assessments/{assessmentId}
func (h *AssessHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["assessmentId"]

	result, err := h.stats.GetAssessment(r.Context(), assessmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListSurveyAssessments handles GET /v1/surveys/{surveyId}/assessments
func (h *AssessHandler) ListSurveyAssessments(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	results, err := h.stats.ListSurveyAssessments(r.Context(), surveyID, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*model.AssessmentResult{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"surveyId":    surveyID,
		"assessments": results,
	})
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
