package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Limiter       *rate.Limiter
	ExcludedPaths []string
}

// NewLimiter returns nil when rps is not positive, which disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// WithRateLimit rejects requests with 429 once the limiter is exhausted.
// Excluded paths are never limited.
func WithRateLimit(config RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if config.Limiter == nil {
			logger.Info("rate limiting is disabled")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.ExcludedPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if !config.Limiter.Allow() {
				logger.Warn("rate limit exceeded",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
