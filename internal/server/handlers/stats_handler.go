package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/service/stats"
)

// StatsHandler adapts the stats aggregator to HTTP. Authentication is
// enforced by the router's basic-auth middleware before this runs.
type StatsHandler struct {
	svc    *stats.Service
	logger *zap.Logger
}

// NewStatsHandler constructs the HTTP handler adapter.
func NewStatsHandler(svc *stats.Service, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{svc: svc, logger: logger}
}

// Report handles GET /api/stats.
func (h *StatsHandler) Report(c *gin.Context) {
	report, err := h.svc.BuildReport(c.Request.Context())
	if err != nil {
		h.logger.Error("failed building report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, report)
}
