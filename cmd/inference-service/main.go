package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/neuroscreen-ai/inference/pkg/common/config"
	"github.com/neuroscreen-ai/inference/pkg/common/database"
	"github.com/neuroscreen-ai/inference/pkg/common/logger"
	"github.com/neuroscreen-ai/inference/pkg/events"
	"github.com/neuroscreen-ai/inference/pkg/gateway/middleware"
	"github.com/neuroscreen-ai/inference/pkg/metadata"
	"github.com/neuroscreen-ai/inference/pkg/observability/metrics"
	"github.com/neuroscreen-ai/inference/pkg/serving"
	"github.com/neuroscreen-ai/inference/pkg/storage"
)

func main() {
	logger.Init()
	cfg := config.Load()

	orchestrator, err := serving.New(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load model")
	}

	if cfg.CacheEnabled {
		orchestrator.WithCache(storage.NewResultCache(database.GetRedis(), cfg.ResultCacheTTL))
	}

	var publisher *events.Publisher
	if cfg.EventsEnabled {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		orchestrator.WithEvents(publisher)
	}

	metaStore, err := metadata.Load(cfg.ModelDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load model metadata")
	}

	service := &InferenceService{
		orchestrator: orchestrator,
		metadata:     metaStore,
	}

	router := buildRouter(service, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Inference Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Inference Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close event publisher")
		}
	}
	if cfg.CacheEnabled {
		if err := database.CloseRedis(); err != nil {
			logger.Log.WithError(err).Error("Failed to close Redis")
		}
	}

	logger.Log.Info("Inference Service stopped")
}

func buildRouter(service *InferenceService, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/", service.handleRoot).Methods("GET")
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/ready", service.handleReady).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	router.HandleFunc("/api/v1/predict", service.handlePredict).Methods("POST")
	router.HandleFunc("/api/v1/predict/audio", service.handlePredictAudio).Methods("POST")
	router.HandleFunc("/api/v1/predict/handwriting", service.handlePredictHandwriting).Methods("POST")
	router.HandleFunc("/api/v1/metadata", service.handleMetadata).Methods("GET")
	router.HandleFunc("/api/v1/sample-data", service.handleSampleData).Methods("GET")

	return router
}
