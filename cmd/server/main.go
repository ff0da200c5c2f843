/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ledger HTTP server: configuration, storage,
  service wiring, graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (file + LEDGER_* environment)
  3. Open the SQLite store (migrations apply on open)
  4. Wire the ledger service and HTTP router
  5. Start the server; drain on SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  Config file path (default: ./ledger.yaml if present)
  -addr    Listen address, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for an in-memory database

EXAMPLES:
  ./server -db="./data/ledger.db"
  ./server -addr=":3000" -config="/etc/ledger.yaml"
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

	"github.com/warp/ledger-service/api"
	"github.com/warp/ledger-service/config"
	"github.com/warp/ledger-service/ledger"
	"github.com/warp/ledger-service/store/sqlite"
)

func main() {
	cfgFile := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	service := ledger.NewService(store, ledger.UUIDGenerator{})
	handler := api.NewHandler(service)
	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
