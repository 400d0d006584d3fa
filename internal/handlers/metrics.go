package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// PrometheusWriter writes metrics in the Prometheus text format.
type PrometheusWriter interface {
	WritePrometheus(w io.Writer)
}

// MetricsHandler exposes process metrics, the request metrics collected by
// the middleware and opcache gauges read at scrape time.
type MetricsHandler struct {
	newCache CacheFactory
	requests PrometheusWriter
	logger   *slog.Logger
}

func NewMetricsHandler(newCache CacheFactory, requests PrometheusWriter, logger *slog.Logger) *MetricsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsHandler{newCache: newCache, requests: requests, logger: logger}
}

func (h *MetricsHandler) Serve(c *gin.Context) {
	cache, err := h.newCache(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	metrics.WriteProcessMetrics(c.Writer)
	if h.requests != nil {
		h.requests.WritePrometheus(c.Writer)
	}
	cacheMetrics(cache).WritePrometheus(c.Writer)
}

func cacheMetrics(cache bytecode.Cache) *metrics.Set {
	memory := cache.Memory()
	stats := cache.Statistics()
	scripts := cache.Scripts()
	slots := scripts.Slots()

	set := metrics.NewSet()
	set.NewGauge("opcache_enabled", func() float64 {
		if cache.IsEnabled() {
			return 1
		}
		return 0
	})
	set.NewGauge("opcache_memory_used_megabytes", memory.UsedInMb)
	set.NewGauge("opcache_memory_wasted_megabytes", memory.WastedInMb)
	set.NewGauge("opcache_memory_free_megabytes", memory.FreeInMb)
	set.NewGauge("opcache_memory_size_megabytes", memory.SizeInMb)
	set.NewGauge("opcache_hits", func() float64 { return float64(stats.Hits()) })
	set.NewGauge("opcache_misses", func() float64 { return float64(stats.Misses()) })
	set.NewGauge("opcache_hit_rate_percent", stats.HitRateInPercent)
	set.NewGauge("opcache_cached_scripts", func() float64 { return float64(scripts.Count()) })
	set.NewGauge("opcache_slots_used", func() float64 { return float64(slots.Used()) })
	set.NewGauge("opcache_slots_max", func() float64 { return float64(slots.Max()) })
	set.NewGauge("opcache_slots_wasted", func() float64 { return float64(slots.Wasted()) })

	if reporter, ok := cache.(bytecode.RestartReporter); ok {
		restarts := reporter.Restarts()
		set.NewGauge(`opcache_restarts{cause="oom"}`, func() float64 { return float64(restarts.OutOfMemory()) })
		set.NewGauge(`opcache_restarts{cause="hash"}`, func() float64 { return float64(restarts.HashOverflow()) })
		set.NewGauge(`opcache_restarts{cause="manual"}`, func() float64 { return float64(restarts.Manual()) })
		set.NewGauge("opcache_start_time_seconds", func() float64 { return unixSeconds(restarts.StartedAt()) })
		set.NewGauge("opcache_last_restart_time_seconds", func() float64 { return unixSeconds(restarts.LastRestartAt()) })
	}
	return set
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}
