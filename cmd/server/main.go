package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveycipher/internal/cache"
	"surveycipher/internal/config"
	"surveycipher/internal/repository"
	"surveycipher/internal/service"
	"surveycipher/internal/transport/rest"
	"surveycipher/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	serverCfg := config.DefaultServerConfig()
	aiCfg := config.DefaultAIConfig()
	networkCfg := config.DefaultNetworkConfig()
	fusionCfg := config.DefaultFusionConfig()

	log.Printf("AI Config:")
	log.Printf("  Light model: %s", aiCfg.Models.Light)
	log.Printf("  Deep model:  %s", aiCfg.Models.Deep)
	if aiCfg.IsEnabled() {
		log.Println("  API Key:     configured")
	} else {
		log.Println("  API Key:     NOT SET (contradiction checks disabled)")
	}
	log.Printf("IP resolver: %s", networkCfg.Mode)
	log.Printf("Fraud prior: %.2f", fusionCfg.Prior)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(serverCfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	// Redis connection
	redisAddr := strings.TrimPrefix(serverCfg.RedisURI, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	reputationRepo := repository.NewReputationRepository(mongoClient)
	assessmentRepo := repository.NewAssessmentRepository(mongoClient)

	// Initialize caches
	ipCache := cache.NewIPCache(rdb)
	telemetryCache := cache.NewTelemetryCache(rdb)
	statsCache := cache.NewStatsCache(rdb)
	resultCache := cache.NewResultCache(rdb)
	watchlistCache := cache.NewWatchlistCache(rdb)
	blocklistCache := cache.NewBlocklistCache(rdb)

	// Initialize services
	resolver, err := service.NewResolverFromConfig(networkCfg)
	if err != nil {
		log.Fatal("Failed to build IP resolver:", err)
	}
	networkSvc := service.NewNetworkService(resolver, ipCache, networkCfg)
	contradictionSvc := service.NewContradictionService(aiCfg)
	reputationSvc := service.NewReputationService(reputationRepo)
	reputationSvc.SetBlocklistCache(blocklistCache)
	statsSvc := service.NewStatsService(assessmentRepo, statsCache, resultCache, watchlistCache)
	statsSvc.SetBroadcaster(wsHub)

	assessorSvc := service.NewAssessorService(contradictionSvc, networkSvc, reputationSvc, fusionCfg, statsSvc)

	// Create router with container
	container := &rest.Container{
		AssessorService:   assessorSvc,
		ReputationService: reputationSvc,
		StatsService:      statsSvc,
		TelemetryCache:    telemetryCache,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", serverCfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/assess")
		log.Println("  GET  /v1/assessments/{assessmentId}")
		log.Println("  GET  /v1/surveys/{surveyId}/assessments")
		log.Println("  GET  /v1/surveys/{surveyId}/stats")
		log.Println("  GET  /v1/reputation/{identifier}")
		log.Println("  GET  /v1/blocklist")
		log.Println("  GET  /v1/watchlist")
		log.Println("  GET  /v1/checks")
		log.Println("  GET  /v1/tiers/{tier}")
		log.Println("  WS   /v1/ws/sessions/{sessionId}/telemetry")
		log.Println("  WS   /v1/ws/surveys/{surveyId}/monitor")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
