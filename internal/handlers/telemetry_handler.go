package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type TelemetryHandler struct {
	BaseHandler
	telemetryService services.TelemetryService
}

func NewTelemetryHandler(telemetryService services.TelemetryService, logger utils.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		BaseHandler:      NewBaseHandler(logger),
		telemetryService: telemetryService,
	}
}

// RecordEvents appends a batch of telemetry events to a session
// @Summary Record telemetry
// @Tags adaptive
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.TelemetryBatch true "Events"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /adaptive/{id}/events [post]
func (h *TelemetryHandler) RecordEvents(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.TelemetryBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "events must be an array", err)
		return
	}

	caller, _ := CallerFromContext(c)
	recorded, err := h.telemetryService.RecordEvents(c.Request.Context(), sessionID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "recorded": recorded})
}
