package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports liveness of the database and cache
type HealthController struct {
	db    Pinger
	cache Pinger
}

// NewHealthController creates a HealthController. cache may be nil.
func NewHealthController(db Pinger, cache Pinger) *HealthController {
	return &HealthController{db: db, cache: cache}
}

// Health answers 503 when the database is down. A cache outage only degrades.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "cache": "disabled"}
	status := http.StatusOK

	if err := hc.db.Ping(ctx); err != nil {
		utils.LogError("Health check: database unreachable: %v", err)
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if hc.cache != nil {
		checks["cache"] = "ok"
		if err := hc.cache.Ping(ctx); err != nil {
			utils.LogWarn("Health check: cache unreachable: %v", err)
			checks["cache"] = "degraded"
		}
	}

	c.JSON(status, utils.StandardResponse{
		Success: status == http.StatusOK,
		Message: "PropertyHub payments",
		Data:    checks,
	})
}
