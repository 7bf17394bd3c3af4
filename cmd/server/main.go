// Package main initializes and starts the farm inventory API server,
// setting up configuration, logging, the store, services, handlers and
// optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/config"
	"github.com/atinyakov/cerevyn/internal/db"
	"github.com/atinyakov/cerevyn/internal/logger"
	"github.com/atinyakov/cerevyn/internal/repository"
	"github.com/atinyakov/cerevyn/internal/server/handler/http"
	"github.com/atinyakov/cerevyn/internal/service"
	"github.com/atinyakov/cerevyn/internal/validation"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Parse the config file, command-line flags and environment.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel, options.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := service.NewTokenService(options.JWTSecret, options.TokenTTL)
	if err != nil {
		zapLogger.Fatal("cannot init token service", zap.Error(err))
	}

	// Pick the store: PostgreSQL when a DSN is configured, memory otherwise.
	var (
		userRepo      service.UserRepository
		inventoryRepo service.InventoryRepository
		store         http.Pinger
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()

		userRepo = repository.NewPostgresUserRepository(postgresDB)
		inventoryRepo = repository.NewPostgresInventoryRepository(postgresDB)
		store = postgresDB
	} else {
		zapLogger.Warn("no database configured, data lives in memory only")
		mem := repository.NewMemoryStore()
		userRepo, inventoryRepo, store = mem, mem, mem
	}

	// Initialize business-logic services.
	validate := validation.New()
	authService := service.NewAuthService(userRepo, tokens, validate)
	inventoryService := service.NewInventoryService(inventoryRepo, validate)

	// Create HTTP handlers and build the router.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	inventoryHandler := &http.InventoryHandler{InventoryService: inventoryService, Log: zapLogger}
	healthHandler := &http.HealthHandler{Store: store, Log: zapLogger}
	router := http.NewRouter(authHandler, inventoryHandler, healthHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server",
			zap.String("addr", options.Port),
			zap.Bool("tls", options.TLSEnabled()),
			zap.String("env", options.Environment),
		)
		if options.TLSEnabled() {
			errCh <- server.ListenAndServeTLS(options.TLSCertFile, options.TLSKeyFile)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
