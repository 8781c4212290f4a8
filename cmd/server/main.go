/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing import server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env files, environment, flags)
  2. Open the store and bootstrap the schema
  3. Build the import engine with every importer
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      database DSN (overrides DB_DSN)
           Use ":memory:" for an in-memory SQLite database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/staffing.db"
  DB_DRIVER=pgx DB_DSN=postgres://staffing@localhost/staffing ./server

SEE ALSO:
  - config/config.go: environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/staffing-engine/api"
	"github.com/warp/staffing-engine/auth"
	"github.com/warp/staffing-engine/config"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/importers"
	"github.com/warp/staffing-engine/logging"
	"github.com/warp/staffing-engine/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dsn := flag.String("db", cfg.DBDSN, "database DSN")
	flag.Parse()

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := store.Open(cfg.DBDriver, *dsn)
	if err != nil {
		log.Fatal("failed to initialize database", "driver", cfg.DBDriver, "error", err)
	}
	defer st.Close()

	orch := engine.NewOrchestrator(st,
		auth.NewJWTVerifier(cfg.JWTSecret),
		engine.NewRegistry(importers.All()...),
		engine.Options{
			AllowedRoles:    cfg.ImportRoles,
			MaxParams:       cfg.MaxBindParams,
			DefaultPassword: cfg.DefaultUserPassword,
			Log:             log,
			Metrics:         engine.NewMetrics(prometheus.DefaultRegisterer),
		},
	)

	handler := api.NewHandler(orch, st, log)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    prometheus.DefaultGatherer,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr, "driver", cfg.DBDriver, "types", orch.Families())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
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
		return
	}
	log.Info("server stopped")
}
