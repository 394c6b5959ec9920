package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessChecks are the backend probes behind /ready. The document store is
// load-bearing; the cache is not, since every read path fails open without it.
type ReadinessChecks struct {
	Mongo func(ctx context.Context) error
	Cache func(ctx context.Context) error
}

// SetReadiness installs the backend probes. Unset probes pass.
func (h *Handlers) SetReadiness(checks ReadinessChecks) {
	h.readiness = checks
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.config.ServiceName,
		Version: h.config.ServiceVersion,
	})
}

// Ready handles GET /ready
func (h *Handlers) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if h.readiness.Mongo != nil {
		if err := h.readiness.Mongo(ctx); err != nil {
			h.logger.Error("readiness: mongo unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ReadyResponse{
				Ready:    false,
				Database: "unreachable",
				Cache:    h.cacheStatus(ctx),
			})
			return
		}
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Ready:    true,
		Database: "ok",
		Cache:    h.cacheStatus(ctx),
	})
}

// cacheStatus reports the cache backend state without affecting readiness.
func (h *Handlers) cacheStatus(ctx context.Context) string {
	if h.readiness.Cache == nil {
		return "disabled"
	}
	if err := h.readiness.Cache(ctx); err != nil {
		h.logger.Warn("readiness: cache unreachable", zap.Error(err))
		return "degraded"
	}
	return "ok"
}

// Response types

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type ReadyResponse struct {
	Ready    bool   `json:"ready"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
