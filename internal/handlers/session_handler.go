package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession begins an adaptive session and serves its first question
// @Summary Start adaptive session
// @Tags adaptive
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Subject"
// @Success 200 {object} report.StartResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /adaptive/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	caller, _ := CallerFromContext(c)
	h.LogRequest(c, "Starting adaptive session", "subject", req.Subject)

	result, err := h.sessionService.Start(c.Request.Context(), &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitAnswer grades one answer and returns the next question or the final summary
// @Summary Submit adaptive answer
// @Tags adaptive
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SubmitAnswerRequest true "Answer"
// @Success 200 {object} report.NextQuestionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /adaptive/{id}/answer [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	caller, _ := CallerFromContext(c)
	result, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Body())
}

// GetHistory lists the caller's recent sessions, newest first
func (h *SessionHandler) GetHistory(c *gin.Context) {
	caller, _ := CallerFromContext(c)

	history, err := h.sessionService.History(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
