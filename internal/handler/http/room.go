package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/dto"
	"locusfocus-backend/internal/service"
)

// RoomHandler serves room membership and snapshot endpoints.
type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// JoinRoom handles POST /api/rooms/:roomId/join.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	var req dto.JoinRoomRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Handler.JoinRoom: invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.roomService.JoinRoom(c.Request.Context(), roomID, req.UserID, req.Username)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true, "room": snap})
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	snap, err := h.roomService.GetSnapshot(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, snap)
}

// LeaveRoom handles POST /api/rooms/:roomId/leave.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	var req dto.LeaveRoomRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.roomService.LeaveRoom(c.Request.Context(), roomID, req.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true, "room": snap})
}
