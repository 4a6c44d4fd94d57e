// Package main provides the entry point for the buildnumber API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildnumber-dev/buildnumber/internal/api"
	"github.com/buildnumber-dev/buildnumber/internal/auth"
	"github.com/buildnumber-dev/buildnumber/internal/config"
	"github.com/buildnumber-dev/buildnumber/internal/counter"
	"github.com/buildnumber-dev/buildnumber/internal/issuance"
	"github.com/buildnumber-dev/buildnumber/internal/mailer"
	"github.com/buildnumber-dev/buildnumber/internal/metrics"
	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "buildnumberd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLogLevel(cfg.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }() //nolint:errcheck

	if err := metrics.Init(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	var sender mailer.Sender = mailer.Nop{}
	if cfg.MailEnabled() {
		sender = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailFrom)
	} else {
		logger.Warn("no mail provider configured, welcome mails will be dropped")
	}

	issuer := issuance.New(store, sender, logger)
	ctr := counter.New(store, logger)
	validator := auth.NewValidator(store)
	handler := api.NewHandler(issuer, ctr, store, logger)
	router := api.NewRouter(handler, auth.Middleware(validator), logger)

	// Metrics on a separate listener so the public surface stays minimal
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("buildnumber API starting",
			"version", version,
			"addr", cfg.ListenAddr,
			"metrics_addr", cfg.MetricsListenAddr,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	_ = metricsSrv.Shutdown(ctx) //nolint:errcheck

	return nil
}

// parseLogLevel maps the config value to a slog level. Load validated the
// value already, so unknown strings can only mean info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
