/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rent management server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (envconfig) and flags
  2. Configure structured logging (slog)
  3. Initialize SQLite store
  4. Create billing coordinator and API handler
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  Environment variables (prefix RENTMAN_):
    RENTMAN_ADDR         Listen address (default: :8080)
    RENTMAN_DB_PATH      SQLite database path (default: rentman.db)
    RENTMAN_LOG_FORMAT   "json" or "text" (default: text)
    RENTMAN_RATE_LIMIT   Requests per minute per IP, 0 disables (default: 300)
    RENTMAN_CORS_ORIGINS Comma-separated allowed origins

  Flags override environment:
    -addr  Listen address
    -db    SQLite database path (":memory:" for in-memory)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rentman.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/seintelly36/rent-manager/api"
	"github.com/seintelly36/rent-manager/billing"
	"github.com/seintelly36/rent-manager/store/sqlite"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr        string   `envconfig:"ADDR" default:":8080"`
	DBPath      string   `envconfig:"DB_PATH" default:"rentman.db"`
	LogFormat   string   `envconfig:"LOG_FORMAT" default:"text"`
	RateLimit   int      `envconfig:"RATE_LIMIT" default:"300"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("rentman", &cfg); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags override environment
	addr := flag.String("addr", cfg.Addr, "listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer store.Close()

	// Wire dependencies
	coordinator := billing.NewCoordinator(store, store, logger)
	handler := api.NewHandler(store, coordinator, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", *addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
