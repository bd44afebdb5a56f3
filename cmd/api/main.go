package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-inventory-api/internal"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/logging"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.DatabaseOptions()
	if err != nil {
		return err
	}
	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := database.Open(openCtx, opts)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	srv, err := internal.NewServer(cfg, db, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting asset inventory api",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("driver", string(opts.Driver)),
			slog.Duration("jwt_expiry", cfg.JWTExpiry),
			slog.Bool("require_auth", cfg.RequireAuth),
			slog.Bool("move_atomic", cfg.MoveAtomic))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
