/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the asset movement ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env vars, optional .env file)
  2. Parse command-line flag overrides
  3. Open the SQLite store
  4. Wire engine, auth service, handlers, router
  5. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides ASSETLEDGER_PORT)
  -db      SQLite database path (overrides ASSETLEDGER_DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

ENVIRONMENT:
  All variables carry the ASSETLEDGER_ prefix; see pkg/config.
  ASSETLEDGER_JWT_SECRET is required outside dev.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/asset-ledger/api"
	"github.com/warp/asset-ledger/auth"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/pkg/config"
	"github.com/warp/asset-ledger/pkg/logger"
	"github.com/warp/asset-ledger/pkg/metrics"
	"github.com/warp/asset-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Flag overrides for local runs.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	logg := logger.New(logger.Options{
		ServiceName: "asset-ledger",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Console:     !cfg.IsProd(),
	})
	ctx := context.Background()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logg.Error(ctx, "failed to open database", err)
		os.Exit(1)
	}
	defer store.Close()

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		logg.Error(ctx, "failed to build token issuer", err)
		os.Exit(1)
	}

	engine := ledger.NewEngine(store)
	authSvc := auth.NewService(store, issuer)
	m := metrics.New()

	handler := api.NewHandler(engine, authSvc, logg, m, cfg.SecureCookies, cfg.SessionTTL)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logg,
		Metrics:     m,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"addr": cfg.Addr(),
			"env":  cfg.Env,
			"db":   cfg.DBPath,
		}), "server.starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info(ctx, "server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "forced shutdown", err)
		os.Exit(1)
	}

	logg.Info(ctx, "server.stopped")
}
