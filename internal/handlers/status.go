package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// CacheFactory builds a fresh reader for every request.
type CacheFactory func(ctx context.Context) (bytecode.Cache, error)

// NewCacheFactory returns a factory that reads the status through fn and
// attaches the given configuration. A positive timeout bounds every read.
func NewCacheFactory(fn bytecode.StatusFunc, configuration bytecode.Configuration, timeout time.Duration, logger *slog.Logger) CacheFactory {
	return func(ctx context.Context) (bytecode.Cache, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		cache, err := bytecode.NewPhpOpcache(ctx, nil, configuration,
			bytecode.WithStatusFunc(fn),
			bytecode.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return cache, nil
	}
}

type StatusHandler struct {
	newCache CacheFactory
	logger   *slog.Logger
}

func NewStatusHandler(newCache CacheFactory, logger *slog.Logger) (*StatusHandler, error) {
	if newCache == nil {
		return nil, errors.New("cache factory cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		newCache: newCache,
		logger:   logger,
	}, nil
}

func (h *StatusHandler) Register(r gin.IRouter) {
	r.GET("/status", h.Status)
	r.GET("/memory", h.Memory)
	r.GET("/statistics", h.Statistics)
	r.GET("/scripts", h.Scripts)
	r.GET("/configuration", h.Configuration)
}

func (h *StatusHandler) cache(c *gin.Context) (bytecode.Cache, bool) {
	cache, err := h.newCache(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return nil, false
	}
	return cache, true
}

func (h *StatusHandler) Status(c *gin.Context) {
	cache, ok := h.cache(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStatusView(cache))
}

func (h *StatusHandler) Memory(c *gin.Context) {
	cache, ok := h.cache(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newMemoryView(cache.Memory()))
}

func (h *StatusHandler) Statistics(c *gin.Context) {
	cache, ok := h.cache(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStatisticsView(cache.Statistics()))
}

// Scripts lists cached scripts. Query parameters: sort (hits, memory,
// last_used, path) and limit.
func (h *StatusHandler) Scripts(c *gin.Context) {
	order, limit, err := parseScriptQuery(c)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	cache, ok := h.cache(c)
	if !ok {
		return
	}

	scripts := cache.Scripts()
	if order != "" {
		scripts = scripts.Sorted(order)
	}
	c.JSON(http.StatusOK, newScriptsView(scripts.Limit(limit)))
}

func (h *StatusHandler) Configuration(c *gin.Context) {
	cache, ok := h.cache(c)
	if !ok {
		return
	}
	body, err := json.Marshal(cache.Configuration())
	if err != nil {
		handleError(c, h.logger, fmt.Errorf("encoding configuration: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func parseScriptQuery(c *gin.Context) (bytecode.SortOrder, int, error) {
	order, err := bytecode.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return "", 0, &ValidationError{Field: "sort", Message: err.Error()}
	}

	limit := -1
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", 0, &ValidationError{Field: "limit", Message: "must be a non-negative integer"}
		}
		limit = n
	}
	return order, limit, nil
}
