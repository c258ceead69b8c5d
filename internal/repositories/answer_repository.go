package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"gorm.io/gorm"
)

// AnswerRepository interface for answered question operations
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.AnsweredQuestion) error

	// ListBySession returns answers ordered by question number.
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.AnsweredQuestion, error)
	// ListBySessions groups answers per session, each ordered by question number.
	ListBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string][]*models.AnsweredQuestion, error)
	CountCorrect(ctx context.Context, tx *gorm.DB, sessionID string) (int, error)
}

// TelemetryRepository interface for the append-only telemetry log
type TelemetryRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, events []*models.TelemetryEvent) error

	// ListBySession returns events in recorded order.
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.TelemetryEvent, error)
}
