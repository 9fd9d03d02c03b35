package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chafiq1992/order-scanner/internal/infrastructure/persistence"
	"github.com/chafiq1992/order-scanner/internal/interfaces/http/dto"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	BaseHandler
	db         *persistence.Database
	storeCount int
	startTime  time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *persistence.Database, storeCount int) *HealthHandler {
	return &HealthHandler{
		db:         db,
		storeCount: storeCount,
		startTime:  time.Now(),
	}
}

// RegisterRoutes registers the health route on the API group
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Stores   int    `json:"stores"`
	Uptime   string `json:"uptime"`
}

// Health reports whether the service and its database are reachable. Zero
// configured stores is degraded, not down: scans still resolve to not found.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Stores:   h.storeCount,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "down"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}
	if h.storeCount == 0 {
		resp.Status = "degraded"
	}
	h.Success(c, resp)
}
