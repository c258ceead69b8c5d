package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"gorm.io/gorm"
)

// RiskReportRepository interface for anti-cheat report operations
type RiskReportRepository interface {
	// Upsert inserts or replaces the report keyed by session id.
	Upsert(ctx context.Context, tx *gorm.DB, report *models.RiskReport) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.RiskReport, error)
	GetMultiple(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string]*models.RiskReport, error)
}

// CognitiveProfileRepository interface for behavioral profile operations
type CognitiveProfileRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, profile *models.CognitiveProfile) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.CognitiveProfile, error)
	GetMultiple(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string]*models.CognitiveProfile, error)
}
