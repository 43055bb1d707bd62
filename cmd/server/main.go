package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/movierec/internal/database"
	"github.com/yishak-cs/movierec/internal/handlers"
	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/scoring"
	"github.com/yishak-cs/movierec/internal/services"
	"github.com/yishak-cs/movierec/pkg/helper"
)

func main() {
	config, err := helper.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(config.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Initialize entity store
	store, err := helper.OpenStore(ctx, config, log)
	if err != nil {
		log.Fatal("Failed to open store", "driver", config.StoreDriver, "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Error("Error closing store", "error", err)
		}
	}()

	if config.ImportOnStart {
		importer := database.NewMovieLensImporter(store, log)
		if err := importer.ImportAllData(ctx, config.DataDir); err != nil {
			log.Fatal("Import failed", "dir", config.DataDir, "error", err)
		}
		status, err := importer.GetImportStatus(ctx)
		if err != nil {
			log.Fatal("Failed to get import status", "error", err)
		}
		log.Info("Store ready",
			"movies", status.Movies,
			"genres", status.Genres,
			"ratings", status.Ratings,
			"users", status.Users,
			"watched", status.Watched,
		)
	}

	// Load the scoring model once; it is shared read-only by every request
	model, err := scoring.LoadModel(config.ModelPath)
	if err != nil {
		log.Fatal("Failed to load model", "path", config.ModelPath, "error", err)
	}
	users, items, factors, err := model.Stats()
	if err != nil {
		log.Warn("Model has no trained users or items, every estimate is the global mean", "path", config.ModelPath)
	}
	log.Info("Model loaded", "path", config.ModelPath, "users", users, "items", items, "factors", factors)

	// Initialize services
	ranker := services.NewRanker(config.RankerWorkers, config.ScorerTimeout)
	recommendationService := services.NewRecommendationService(store, model, ranker, log)

	// Initialize API handlers
	apiHandler := handlers.NewAPIHandler(recommendationService, store, log)

	if !strings.EqualFold(config.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.AccessLog(log))
	router.Use(handlers.CORS(config.CORSOrigins))

	apiHandler.SetupRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, http.StatusNotFound, handlers.CodeNotFound, errors.New("endpoint not found"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server starting", "port", config.Port, "store", config.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return
	}

	log.Info("Server exited properly")
}
