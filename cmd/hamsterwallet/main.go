package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hamsterwallet/internal/analytics"
	"hamsterwallet/internal/backend"
	"hamsterwallet/internal/config"
	apphttp "hamsterwallet/internal/http"
	applog "hamsterwallet/internal/log"
	"hamsterwallet/internal/mining"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Backend configuration failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}()

	session := mining.NewSession(result.Backend, result.Backend, result.Backend,
		mining.Options{AutoSave: cfg.AutoSaveGroups})
	page := analytics.NewPage(result.Backend)

	// Prime the pages; a failure here is survivable, the next filter change
	// retries against the backend.
	primeCtx, primeCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := session.LoadTree(primeCtx); err != nil {
		logger.Warn("Initial tree load failed", applog.FieldError, err)
	}
	if err := session.LoadPersisted(primeCtx); err != nil {
		logger.Warn("Loading persisted groups failed", applog.FieldError, err)
	}
	if err := page.Refresh(primeCtx); err != nil {
		logger.Warn("Initial analytics refresh failed", applog.FieldError, err)
	}
	primeCancel()

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, session, page)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting hamsterwallet server",
		"port", cfg.Port, "backend", backendCfg.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
