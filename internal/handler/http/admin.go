package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"locusfocus-backend/internal/dto"
	"locusfocus-backend/internal/service"
)

// AdminHandler serves maintenance and health endpoints.
type AdminHandler struct {
	roomService *service.RoomService
	redis       Pinger
}

// Pinger is an optional dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewAdminHandler creates the handler. redis may be nil when Redis is not
// configured; it is then left out of the health report.
func NewAdminHandler(roomService *service.RoomService, redis Pinger) *AdminHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for AdminHandler")
	}
	return &AdminHandler{roomService: roomService, redis: redis}
}

// Cleanup handles POST /api/admin/cleanup. Only an absent daysOld defaults
// to 30; an explicit 0 is passed through.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	days := float64(service.DefaultCleanupDays)
	if req.DaysOld != nil {
		days = *req.DaysOld
	}

	deleted, err := h.roomService.Cleanup(c.Request.Context(), days)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true, "deletedRooms": deleted})
}

// Health handles GET /health. It answers 503 when a dependency is down.
func (h *AdminHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	body := gin.H{"timestamp": time.Now().UnixMilli()}

	if err := h.roomService.Ping(ctx); err != nil {
		body["storage"] = err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	} else {
		body["storage"] = "ok"
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			body["redis"] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		} else {
			body["redis"] = "ok"
		}
	}
	body["status"] = status
	SuccessResponse(c, code, body)
}
