package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookcatalog/internal/api"
	"bookcatalog/internal/auth"
	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/platform/crypto"
	"bookcatalog/internal/platform/logger"
	"bookcatalog/internal/platform/postgres"
	"bookcatalog/internal/user"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.WithField("dsn", config.RedactDSN(cfg.DatabaseDSN)).Info("database connection OK")

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	userRepo := user.NewPostgresRepo(pool, cfg.DBQueryTimeout)
	if err := user.Bootstrap(ctx, userRepo, log, user.DefaultAccounts(cfg.AdminPassword, cfg.UserPassword)); err != nil {
		return err
	}

	var bookRepo book.Repository = book.NewPostgresRepo(pool, cfg.DBQueryTimeout)
	if cfg.RedisURL != "" {
		client, err := book.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, book cache disabled")
		} else {
			defer client.Close()
			bookRepo = book.NewCachedRepository(bookRepo, client, cfg.RedisTTL, log)
			log.WithField("ttl", cfg.RedisTTL).Info("book cache enabled")
		}
	}

	tokens := crypto.NewTokens(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	userService := user.NewService(userRepo, log)
	bookService := book.NewService(bookRepo, log)
	authService := auth.NewService(userService, tokens, log)

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies...)
	defer limiter.Close()

	handler := api.NewRouter(api.Deps{
		Auth:         auth.NewHTTPHandler(authService, log),
		Books:        book.NewHTTPHandler(bookService, log),
		Guard:        httpx.NewGuard(tokens, userService, log),
		Log:          log,
		AuthLimiter:  limiter,
		Ready:        []api.ReadinessCheck{pool.Ping},
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		EnableHSTS:   cfg.EnableHSTS,
	})

	srv := newHTTPServer(cfg, handler, log)
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("starting server")
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

	log.WithField("timeout", cfg.ShutdownTimeout).Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHTTPServer(cfg *config.Config, handler http.Handler, log *logrus.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          stdlog.New(log.WriterLevel(logrus.ErrorLevel), "", 0),
	}
}
