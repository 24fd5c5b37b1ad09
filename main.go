package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/api"
	"DocumentExtractionSystem/pkg/batch"
	"DocumentExtractionSystem/pkg/config"
	"DocumentExtractionSystem/pkg/logger"
	"DocumentExtractionSystem/pkg/schema"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := schema.NewRegistry()
	if err != nil {
		zapLogger.Fatal("Failed to build schema registry", zap.Error(err))
	}

	// Initialize the model client
	client, closeClient, err := config.InitExtractionClient(ctx, cfg.Model, registry, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create model client", zap.String("provider", cfg.Model.Provider), zap.Error(err))
	}
	defer closeClient()

	orchestrator, err := batch.New(client,
		batch.WithLogger(zapLogger),
		batch.WithSchemaChecker(registry),
	)
	if err != nil {
		zapLogger.Fatal("Failed to create batch orchestrator", zap.Error(err))
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, orchestrator, cfg.MaxUploadBytes, zapLogger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", cfg.Model.Name),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatal("Server failed", zap.Error(err))
	}
}
