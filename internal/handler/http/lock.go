package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/dto"
	"locusfocus-backend/internal/service"
)

// LockHandler serves the lock endpoints of a room.
type LockHandler struct {
	roomService *service.RoomService
}

func NewLockHandler(roomService *service.RoomService) *LockHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for LockHandler")
	}
	return &LockHandler{roomService: roomService}
}

// SetLock handles POST /api/rooms/:roomId/lock.
func (h *LockHandler) SetLock(c *gin.Context) {
	roomID := c.Param("roomId")
	var req dto.SetLockRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		// A non-boolean "locked" ends up here as a decode error.
		logrus.WithError(err).WithField("room_id", roomID).Warn("Handler.SetLock: invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid lock data")
		return
	}

	lock, err := h.roomService.SetLock(c.Request.Context(), roomID, req.TargetUserID, req.LockedByUserID, req.Locked)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true, "lock": lock})
}

// GetLockStatus handles GET /api/rooms/:roomId/locks/:userId.
func (h *LockHandler) GetLockStatus(c *gin.Context) {
	info, err := h.roomService.GetLockStatus(c.Request.Context(), c.Param("roomId"), c.Param("userId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, info)
}

// GetAllLocks handles GET /api/rooms/:roomId/locks.
func (h *LockHandler) GetAllLocks(c *gin.Context) {
	locks, err := h.roomService.GetAllLocks(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"locks": locks})
}
