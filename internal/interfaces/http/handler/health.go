package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/synexa/sis/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// poolStatter is implemented by databases that expose their pool counters
type poolStatter interface {
	Stats() (sql.DBStats, error)
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	db      Pinger
	version string
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, timeout: 2 * time.Second}
}

// HealthResponse is the probe payload
type HealthResponse struct {
	Status   string      `json:"status" example:"ok"`
	Version  string      `json:"version,omitempty" example:"1.0.0"`
	Database string      `json:"database,omitempty" example:"ok"`
	Pool     *PoolStatus `json:"pool,omitempty"`
}

// PoolStatus summarizes the database connection pool
type PoolStatus struct {
	Open      int   `json:"open" example:"4"`
	InUse     int   `json:"inUse" example:"1"`
	Idle      int   `json:"idle" example:"3"`
	WaitCount int64 `json:"waitCount" example:"0"`
}

// Health godoc
// @Summary      Liveness and database check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.L(ctx).Warn("Health check failed", zap.Error(err))
			h.Error(c, dto.ErrCodeUnavailable, "Base de dados indisponível", nil)
			return
		}
	}
	h.Success(c, HealthResponse{Status: "ok", Version: h.version, Database: "ok", Pool: h.poolStatus()})
}

func (h *HealthHandler) poolStatus() *PoolStatus {
	ps, ok := h.db.(poolStatter)
	if !ok {
		return nil
	}
	stats, err := ps.Stats()
	if err != nil {
		return nil
	}
	return &PoolStatus{Open: stats.OpenConnections, InUse: stats.InUse, Idle: stats.Idle, WaitCount: stats.WaitCount}
}

// Ready godoc
// @Summary      Readiness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{Status: "ready", Version: h.version}))
}
