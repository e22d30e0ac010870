package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/service/attendance"
)

// AttendanceHandler adapts the submission validator to HTTP.
type AttendanceHandler struct {
	svc    *attendance.Service
	logger *zap.Logger
}

// NewAttendanceHandler constructs the HTTP handler adapter.
func NewAttendanceHandler(svc *attendance.Service, logger *zap.Logger) *AttendanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/attend.
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submission payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.svc.Submit(c.Request.Context(), req)

	var vErr *attendance.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: vErr.Reason})
	case errors.Is(err, attendance.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "attendance already submitted today"})
	case err != nil:
		// Store failures stay opaque to the caller.
		h.logger.Error("submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	default:
		c.JSON(http.StatusOK, resp)
	}
}
