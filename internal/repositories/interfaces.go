package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	StudentID string                `json:"student_id"`
	Subject   string                `json:"subject"`
	Status    *models.SessionStatus `json:"status"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

// PeerQuery selects the completed sessions an answer pattern is compared against.
type PeerQuery struct {
	Subject          string `json:"subject"`
	ExcludeSessionID string `json:"exclude_session_id"`
	ExcludeStudentID string `json:"exclude_student_id"`
	Limit            int    `json:"limit"`
}

// SessionProgress is the per-answer mutation of a session.
type SessionProgress struct {
	CurrentSkill      float64
	QuestionsAnswered int
	Status            models.SessionStatus
	CompletedAt       *time.Time
}

// ===== REPOSITORY AGGREGATE =====

// Repository groups every store the service uses. WithTransaction runs fn in
// one database transaction; repository calls made with the given tx join it.
type Repository interface {
	Session() SessionRepository
	Answer() AnswerRepository
	Telemetry() TelemetryRepository
	RiskReport() RiskReportRepository
	CognitiveProfile() CognitiveProfileRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== ERROR HELPERS =====

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports a unique constraint violation. Drivers that do
// not translate errors are matched by message.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
