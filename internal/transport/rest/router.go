package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"surveycipher/internal/cache"
	"surveycipher/internal/service"
	"surveycipher/internal/transport/rest/handler"
	"surveycipher/internal/transport/rest/middleware"
	"surveycipher/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AssessorService   *service.AssessorService
	ReputationService *service.ReputationService
	StatsService      *service.StatsService
	TelemetryCache    cache.TelemetryCache
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	assessHandler := handler.NewAssessHandler(c.AssessorService, c.StatsService, c.TelemetryCache)
	reputationHandler := handler.NewReputationHandler(c.ReputationService, c.StatsService)
	statsHandler := handler.NewStatsHandler(c.StatsService)
	wsHandler := ws.NewHandler(c.WSHub, c.TelemetryCache)

	// Initialize middleware
	apiKeyMW := middleware.NewAPIKeyMiddleware()

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket routes
	v1.HandleFunc("/ws/sessions/{sessionId}/telemetry", wsHandler.TelemetryWS).Methods("GET")
	v1.HandleFunc("/ws/surveys/{surveyId}/monitor", wsHandler.MonitorWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Scoring and monitoring routes (keyed)
	api := v1.NewRoute().Subrouter()
	api.Use(apiKeyMW.Require)

	api.HandleFunc("/assess", assessHandler.Assess).Methods("POST", "OPTIONS")
	api.HandleFunc("/assessments/{assessmentId}", assessHandler.GetAssessment).Methods("GET", "OPTIONS")
	api.HandleFunc("/surveys/{surveyId}/assessments", assessHandler.ListSurveyAssessments).Methods("GET", "OPTIONS")
	api.HandleFunc("/surveys/{surveyId}/stats", statsHandler.SurveyStats).Methods("GET", "OPTIONS")

	api.HandleFunc("/reputation/{identifier}", reputationHandler.GetProfile).Methods("GET", "OPTIONS")
	api.HandleFunc("/reputation/{identifier}/assessments", reputationHandler.GetHistory).Methods("GET", "OPTIONS")
	api.HandleFunc("/blocklist", reputationHandler.ListBlocked).Methods("GET", "OPTIONS")
	api.HandleFunc("/blocklist/{identifier}", reputationHandler.CheckBlocklist).Methods("GET", "OPTIONS")
	api.HandleFunc("/watchlist", reputationHandler.Watchlist).Methods("GET", "OPTIONS")

	api.HandleFunc("/checks", statsHandler.ListChecks).Methods("GET", "OPTIONS")
	api.HandleFunc("/tiers/{tier}", statsHandler.TierPlan).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, X-API-Key"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
