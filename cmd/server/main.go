/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Hours Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize structured logging (zap)
  3. Initialize SQLite store
  4. Load the rule configuration (file or built-in defaults)
  5. Wire rule engine, ledger, importer, compensation service
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: hours.db)
           Use ":memory:" for in-memory database
  -config  JSON rule configuration path (optional; statutory defaults
           are used when omitted)
  -dev     Human-readable console logging instead of JSON

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hours.db"

  # Run with a bargaining-agreement config
  ./server -config="./configs/cct-2024.json"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hours-engine/api"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/importer"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/rules"
	"github.com/warp/hours-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "hours.db", "SQLite database path")
	configPath := flag.String("config", "", "JSON rule configuration path")
	dev := flag.Bool("dev", false, "console logging for local development")
	flag.Parse()

	log, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Rule configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("failed to load rule configuration", zap.String("path", *configPath), zap.Error(err))
	}

	// Wire domain services
	engine := rules.NewEngine()
	led := ledger.New(store, ledger.NopNotifier{}, log)
	imp := importer.New(store, store, engine, led, cfg, log)
	imp.Calendar = store
	comp := compensation.NewService(store, led, log)

	handler := api.NewHandler(imp, led, engine, comp, store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Strings("rules", engine.Codes()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig reads a JSON rule configuration from path, or returns the
// statutory defaults when path is empty.
func loadConfig(path string) (clock.Config, error) {
	if path == "" {
		return factory.DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return clock.Config{}, err
	}
	return factory.ParseConfig(raw)
}
