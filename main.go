package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/msomdec/localmarket/internal/config"
	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/handler"
	"github.com/msomdec/localmarket/internal/repository/postgres"
	"github.com/msomdec/localmarket/internal/repository/sqlite"
	"github.com/msomdec/localmarket/internal/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	level, _ := cfg.SlogLevel()
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "driver", cfg.Database.Driver)

	hasher, err := service.NewCredentialHasher(cfg.Auth.CredentialAlgorithm, cfg.Auth.BcryptCost, cfg.Auth.MaxConcurrentHashes)
	if err != nil {
		return fmt.Errorf("credential hasher: %w", err)
	}
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	feed := service.NewScoreFeed()

	authService := service.NewAuthService(db.Accounts(), hasher, tokens, cfg.Auth.TokenTTL, cfg.DefaultRegion)
	sessions := service.NewSessionResolver(tokens, db.Accounts())
	reputationService := service.NewReputationService(db.Accounts(), db.Reviews(), feed)
	throttle := service.NewLoginThrottle(ctx, cfg.Auth.LoginRate, cfg.Auth.LoginBurst, 10*time.Minute)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, sessions, reputationService, feed, throttle, cfg.HTTP.CookieSecure)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (domain.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN, cfg.MaxConns)
	default:
		return sqlite.New(cfg.Path)
	}
}
