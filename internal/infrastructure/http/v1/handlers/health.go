package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesledger/internal/infrastructure/storage/postgres"
)

// Database is what the health handler needs from the connection pool.
// *postgres.Pool satisfies it.
type Database interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Database
	app     string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Database, app, version string) *HealthHandler {
	return &HealthHandler{db: db, app: app, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":      h.app,
		"version":  h.version,
		"database": h.db.Stats(),
	})
}
