package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muandane/opcachestat/internal/config"
	"github.com/muandane/opcachestat/internal/handlers"
	"github.com/muandane/opcachestat/internal/middleware"
	"github.com/muandane/opcachestat/internal/router"
	"github.com/muandane/opcachestat/internal/source"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	src, err := source.New(cfg, logger)
	if err != nil {
		return err
	}
	configuration, err := config.LoadConfiguration(cfg.ConfigurationFile)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(logger)
	handler, err := r.Setup(
		handlers.NewCacheFactory(source.Func(src), configuration, cfg.FetchTimeout, logger),
		router.Options{
			RateLimit: middleware.RateLimitConfig{
				Limiter: middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
			},
			AllowedIPs: cfg.AllowedIPs,
		},
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr, "source", cfg.Source)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
