package services

import (
	"context"
	"encoding/json"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/report"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

// ===== SERVICE INTERFACES =====

// SessionService runs the adaptive question loop
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, studentID string) (*report.StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest, studentID string) (*AnswerResult, error)
	History(ctx context.Context, studentID string) ([]report.HistoryEntry, error)
}

// TelemetryService ingests raw interaction events
type TelemetryService interface {
	RecordEvents(ctx context.Context, sessionID string, req *TelemetryBatch, studentID string) (int, error)
}

// AnalyticsService computes, stores and serves risk reports and cognitive profiles
type AnalyticsService interface {
	// CompleteSession runs every post-completion analysis. Failures are logged,
	// never returned; the risk report is empty when it could not be computed.
	CompleteSession(ctx context.Context, session *models.Session, answers []*models.AnsweredQuestion) utils.Optional[*models.RiskReport]

	GetRiskReport(ctx context.Context, sessionID string) (*report.RiskReportView, error)
	RecomputeRisk(ctx context.Context, sessionID string) (*report.RiskReportView, error)

	ComputeProfile(ctx context.Context, sessionID string, caller models.Caller) (*report.ProfileView, error)
	GetProfile(ctx context.Context, sessionID string) (*report.ProfileView, error)

	RecomputeSubject(ctx context.Context, subject string) (*RecomputeSummary, error)
}

// EventService publishes domain events for downstream consumers
type EventService interface {
	NotifySessionStarted(ctx context.Context, session *models.Session) error
	NotifySessionCompleted(ctx context.Context, session *models.Session, score int, risk utils.Optional[*models.RiskReport]) error
	NotifyRiskFlagged(ctx context.Context, session *models.Session, risk *models.RiskReport) error
	NotifyProfileComputed(ctx context.Context, profile *models.CognitiveProfile) error
}

// ExportService renders per-subject analytics workbooks
type ExportService interface {
	ExportSubject(ctx context.Context, subject string) ([]byte, error)
	WriteFile(ctx context.Context, subject, path string) error
}

// ===== REQUEST TYPES =====

type StartSessionRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
}

// SubmitAnswerRequest echoes the served question back with the student's pick.
// Difficulty must be the value the question was generated at.
type SubmitAnswerRequest struct {
	QuestionText  string   `json:"questionText" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,option_list"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	StudentAnswer string   `json:"studentAnswer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic" validate:"max=255"`
	Difficulty    float64  `json:"difficulty" validate:"difficulty_range"`
}

type TelemetryEventInput struct {
	Type           string          `json:"type" validate:"event_type"`
	QuestionNumber *int            `json:"questionNumber" validate:"omitempty,min=0"`
	Value          json.RawMessage `json:"value"`
}

type TelemetryBatch struct {
	Events []TelemetryEventInput `json:"events" validate:"required,dive"`
}

// ===== RESPONSE TYPES =====

// AnswerResult is either the next question or the completion summary
type AnswerResult struct {
	Next       *report.NextQuestionResult
	Completion *report.CompletionResult
}

func (r *AnswerResult) Done() bool {
	return r.Completion != nil
}

// Body returns the payload to serialize
func (r *AnswerResult) Body() interface{} {
	if r.Completion != nil {
		return r.Completion
	}
	return r.Next
}

// RecomputeSummary reports a bulk recompute over one subject
type RecomputeSummary struct {
	Subject     string `json:"subject"`
	Sessions    int    `json:"sessions"`
	RiskReports int    `json:"risk_reports"`
	Profiles    int    `json:"profiles"`
	Failures    int    `json:"failures"`
}
