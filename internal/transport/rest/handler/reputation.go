package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"surveycipher/internal/model"
	"surveycipher/internal/service"
)

// ReputationHandler handles identifier trust endpoints
type ReputationHandler struct {
	reputationSvc *service.ReputationService
	statsSvc      *service.StatsService
}

// NewReputationHandler creates a new reputation handler
func NewReputationHandler(reputationSvc *service.ReputationService, statsSvc *service.StatsService) *ReputationHandler {
	return &ReputationHandler{
		reputationSvc: reputationSvc,
		statsSvc:      statsSvc,
	}
}

// GetProfile handles GET /v1/reputation/{identifier}
func (h *ReputationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	profile := h.reputationSvc.Get(r.Context(), identifier)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":         profile,
		"tier":            profile.Tier(),
		"velocityPerHour": profile.VelocityPerHour(time.Now().UTC()),
		"diversityRatio":  profile.DiversityRatio(),
	})
}

// GetHistory handles GET /v1/reputation/{identifier}/assessments
func (h *ReputationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	results, err := h.statsSvc.ListIdentifierAssessments(r.Context(), identifier, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*model.AssessmentResult{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identifier":  identifier,
		"assessments": results,
	})
}

// CheckBlocklist handles GET /v1/blocklist/{identifier}
func (h *ReputationHandler) CheckBlocklist(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	verdict := h.reputationSvc.IsBlocklisted(r.Context(), identifier)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identifier": identifier,
		"blocked":    verdict.Blocked,
		"reason":     verdict.Reason,
	})
}

// ListBlocked handles GET /v1/blocklist
func (h *ReputationHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.reputationSvc.ListBlocked(r.Context(), int64(queryLimit(r)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []*model.ReputationProfile{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"blocked": profiles})
}

// Watchlist handles GET /v1/watchlist
func (h *ReputationHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsSvc.Watchlist(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": entries})
}
