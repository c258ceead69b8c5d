package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	exportService    services.ExportService
}

func NewReportHandler(analyticsService services.AnalyticsService, exportService services.ExportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// ===== RISK REPORTS =====

// GetRiskReport returns the stored anti-cheat report of a session
// @Summary Get risk report
// @Tags adaptive
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} report.RiskReportView
// @Failure 404 {object} ErrorResponse
// @Router /adaptive/{id}/report [get]
func (h *ReportHandler) GetRiskReport(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	view, err := h.analyticsService.GetRiskReport(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// RecomputeRiskReport rescores a completed session and overwrites its report
func (h *ReportHandler) RecomputeRiskReport(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, "Recomputing risk report", "session_id", sessionID)

	view, err := h.analyticsService.RecomputeRisk(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ===== COGNITIVE PROFILES =====

// ComputeProfile computes and stores the cognitive profile of a completed session
// @Summary Compute cognitive profile
// @Tags adaptive
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} report.ProfileView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /adaptive/{id}/profile [post]
func (h *ReportHandler) ComputeProfile(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	caller, _ := CallerFromContext(c)
	view, err := h.analyticsService.ComputeProfile(c.Request.Context(), sessionID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ReportHandler) GetProfile(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	view, err := h.analyticsService.GetProfile(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ===== EXPORT =====

// ExportSubject streams the analytics workbook of one subject
func (h *ReportHandler) ExportSubject(c *gin.Context) {
	subject := strings.TrimSpace(c.Query("subject"))
	if subject == "" {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Subject required", nil)
		return
	}

	h.LogRequest(c, "Exporting subject analytics", "subject", subject)

	data, err := h.exportService.ExportSubject(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(subject)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func exportFileName(subject string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, subject)
	if name == "" {
		name = "subject"
	}
	return "adaptive_" + name + ".xlsx"
}
