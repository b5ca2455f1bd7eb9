package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surveycipher/internal/model"
	"surveycipher/internal/service"
	"surveycipher/internal/tier"
)

// StatsHandler handles monitoring and introspection endpoints
type StatsHandler struct {
	statsSvc *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsSvc *service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// SurveyStats handles GET /v1/surveys/{surveyId}/stats
func (h *StatsHandler) SurveyStats(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	stats, err := h.statsSvc.GetSurveyStats(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":           stats,
		"meanProbability": stats.MeanProbability(),
		"flaggedRatio":    stats.FlaggedRatio(),
	})
}

// checkView is the wire shape of one registry entry.
type checkView struct {
	CheckID     model.CheckID       `json:"checkId"`
	Name        string              `json:"name"`
	Category    model.CheckCategory `json:"category"`
	MinTier     int                 `json:"minTier"`
	Reliability float64             `json:"reliability"`
}

// ListChecks handles GET /v1/checks
func (h *StatsHandler) ListChecks(w http.ResponseWriter, r *http.Request) {
	ids := model.AllChecks()
	checks := make([]checkView, 0, len(ids))
	for _, id := range ids {
		spec, ok := model.LookupCheck(id)
		if !ok {
			continue
		}
		checks = append(checks, checkView{
			CheckID:     id,
			Name:        spec.Name,
			Category:    spec.Category,
			MinTier:     spec.MinTier,
			Reliability: spec.Reliability,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"checks": checks})
}

// TierPlan handles GET /v1/tiers/{tier}
func (h *StatsHandler) TierPlan(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(mux.Vars(r)["tier"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "tier must be a number")
		return
	}
	if err := tier.Validate(level); err != nil {
		if errors.Is(err, model.ErrInvalidTier) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tier":          level,
		"checks":        tier.Plan(level),
		"usesAI":        tier.UsesAI(level),
		"usesNetwork":   tier.UsesNetwork(level),
		"estimatedCost": model.TierCostUSD[level],
	})
}
