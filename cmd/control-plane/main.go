package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vin-jex/job-orchestrator/internal/api"
	"github.com/vin-jex/job-orchestrator/internal/config"
	"github.com/vin-jex/job-orchestrator/internal/observability"
	"github.com/vin-jex/job-orchestrator/internal/store"
)

// @title Distributed Job Orchestrator API
// @version 1.0
// @description Correctness-first distributed job orchestration control plane.
// @termsOfService https://example.com/terms

// @contact.name Okereke Vincent
// @contact.url https://github.com/vin-jex
// @contact.email vincentcode0@gmail.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http
func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("error loading .env file")
	}

	logger := observability.NewLogger("control-plane")

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("loading api config: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	storeLayer, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer storeLayer.Close()

	server := api.NewServer(storeLayer, logger)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	logger.Info("control-plane listening", "addr", cfg.ListenAddr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
}
