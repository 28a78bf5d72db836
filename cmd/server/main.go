/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the lending engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize the configured store (csv, sqlite, or memory)
  3. Restore the payment ledger, then the loan registry (which replays
     the ledger and runs the initial delinquency sweep)
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -store   Storage backend: csv | sqlite | memory (default: csv)
  -data    Data directory for the csv backend (default: ./data)
  -db      SQLite database path for the sqlite backend (default: lending.db)
           Use ":memory:" for an in-memory database
  -redis   Redis address for the quote cache; empty = in-process cache

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run against CSV files in ./data
  ./server -data=./data

  # Run against SQLite
  ./server -store=sqlite -db=./data/lending.db

  # Run fully in memory with a shared quote cache
  ./server -store=memory -redis=localhost:6379
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

	"github.com/warp/lending-engine/api"
	"github.com/warp/lending-engine/lending"
	"github.com/warp/lending-engine/store/csvfile"
	"github.com/warp/lending-engine/store/memory"
	"github.com/warp/lending-engine/store/rediscache"
	"github.com/warp/lending-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	storeKind := flag.String("store", "csv", "storage backend: csv | sqlite | memory")
	dataDir := flag.String("data", "./data", "data directory for the csv backend")
	dbPath := flag.String("db", "lending.db", "SQLite database path for the sqlite backend")
	redisAddr := flag.String("redis", "", "Redis address for the quote cache (empty = in-process)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	var (
		loanStore    lending.LoanStore
		paymentStore lending.PaymentStore
	)
	switch *storeKind {
	case "csv":
		s := csvfile.New(*dataDir, logger.Named("csv"))
		loanStore, paymentStore = s, s
	case "sqlite":
		s, err := sqlite.New(*dbPath)
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer s.Close()
		loanStore, paymentStore = s, s
	case "memory":
		s := memory.New()
		loanStore, paymentStore = s, s
	default:
		logger.Fatal("unknown store backend", zap.String("store", *storeKind))
	}

	// Restore state: payment history first, then loans (which replay it).
	ctx := context.Background()
	ledger := lending.NewLedger(paymentStore, logger.Named("ledger"))
	if err := ledger.Restore(ctx); err != nil {
		logger.Fatal("failed to restore payment ledger", zap.Error(err))
	}

	registry := lending.NewRegistry(loanStore, ledger, logger.Named("registry"))
	if err := registry.Restore(ctx); err != nil {
		logger.Fatal("failed to restore loans", zap.Error(err))
	}

	// Quote cache
	var quotes api.QuoteCache
	if *redisAddr != "" {
		cache := rediscache.New(*redisAddr)
		defer cache.Close()
		quotes = cache
	}

	// Router
	handler := api.NewHandler(registry, quotes)
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
		logger.Info("server starting",
			zap.Int("port", *port), zap.String("store", *storeKind))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
