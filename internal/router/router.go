package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muandane/opcachestat/internal/handlers"
	"github.com/muandane/opcachestat/internal/middleware"
)

type Options struct {
	RateLimit  middleware.RateLimitConfig
	AllowedIPs []string
}

type Router struct {
	engine *gin.Engine
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	return &Router{
		engine: engine,
		logger: logger,
	}
}

// Setup registers the routes and wraps the engine in the middleware chain.
func (r *Router) Setup(newCache handlers.CacheFactory, opts Options) (http.Handler, error) {
	statusHandler, err := handlers.NewStatusHandler(newCache, r.logger)
	if err != nil {
		return nil, err
	}
	metricsMiddleware := middleware.NewMetricsMiddleware()
	metricsHandler := handlers.NewMetricsHandler(newCache, metricsMiddleware, r.logger)

	r.engine.GET("/health", handlers.HealthCheck)
	r.engine.GET("/metrics", metricsHandler.Serve)
	statusHandler.Register(r.engine)

	rateLimit := opts.RateLimit
	if rateLimit.ExcludedPaths == nil {
		rateLimit.ExcludedPaths = []string{"/health"}
	}

	return middleware.Chain(
		r.engine,
		middleware.WithCompression,
		middleware.WithRateLimit(rateLimit, r.logger),
		middleware.WithAllowedIPs(opts.AllowedIPs, r.logger),
		metricsMiddleware.WithMetrics,
		middleware.WithLogging(r.logger),
	), nil
}
