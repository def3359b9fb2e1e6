package handler

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and readiness probes. Readiness is flipped by
// the server lifecycle.
type HealthHandler struct {
	ready atomic.Bool
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
