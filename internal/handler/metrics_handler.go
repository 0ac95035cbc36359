package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	cache   cachePinger
	logger  *zap.Logger
}

func NewMetricsHandler(metrics *service.MetricsService, db Pinger, cache cachePinger, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{metrics: metrics, db: db, cache: cache, logger: logger}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe (database ping)
// @Description Redis is optional; an unreachable cache is reported but does not fail readiness.
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "ok"}
	if h.cache != nil {
		body["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("cache readiness degraded", zap.Error(err))
			body["cache"] = "unavailable"
		}
	}
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			body["status"] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
