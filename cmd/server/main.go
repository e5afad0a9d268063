/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the surety ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env supported)
  2. Initialize structured logging
  3. Open the SQLite run store
  4. Wire the run service and HTTP router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

ENVIRONMENT:
  ADDR                   listen address (default :8080)
  DATABASE_PATH          SQLite database path (default ./surety.db)
  SETTINGS_PATH          engine settings document (default ./settings.json)
  LOG_LEVEL              debug|info|warn|error
  MAX_UPLOAD_SIZE_BYTES  multipart upload cap

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearport/surety-engine/api"
	"github.com/clearport/surety-engine/config"
	"github.com/clearport/surety-engine/logger"
	"github.com/clearport/surety-engine/service"
	"github.com/clearport/surety-engine/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.L

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := service.New(store, cfg.SettingsPath)
	handler := api.NewHandler(svc, cfg.MaxUploadBytes)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", cfg.Addr, "db", cfg.DatabasePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
