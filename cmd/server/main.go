// Command accounts-server starts the Kunjika accounts HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunjika/accounts/internal/config"
	"github.com/kunjika/accounts/internal/mail"
	"github.com/kunjika/accounts/internal/migrate"
	"github.com/kunjika/accounts/internal/repository/postgres"
	"github.com/kunjika/accounts/internal/server/httpapi"
	"github.com/kunjika/accounts/internal/service"
	"github.com/kunjika/accounts/internal/session"
	"github.com/kunjika/accounts/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	addr := flag.String("addr", "", "listen address (overrides ADDR)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides DATABASE_DSN)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)

	// Services
	tokens := token.New([]byte(cfg.JWTKey), cfg.TokenTTL)
	sessions := session.New([]byte(cfg.JWTKey))
	mailer := mail.NewSMTP(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.FromName, cfg.FromEmail)
	accounts := service.NewAccountService(userRepo, tokens, sessions, mailer, logger, cfg.Host, cfg.UsersPerPage)

	api := httpapi.New(accounts, sessions, logger, cfg.CookieDomain)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
