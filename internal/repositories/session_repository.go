package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"gorm.io/gorm"
)

// SessionRepository interface for adaptive session operations
type SessionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error)

	// Ownership-scoped lookups
	GetForStudent(ctx context.Context, tx *gorm.DB, id, studentID string) (*models.Session, error)
	GetActiveForStudent(ctx context.Context, tx *gorm.DB, id, studentID string) (*models.Session, error)

	// Mutations
	UpdateProgress(ctx context.Context, tx *gorm.DB, id string, progress SessionProgress) error
	UpdateRisk(ctx context.Context, tx *gorm.DB, id string, riskIndex int, level models.RiskLevel) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SessionFilters) ([]*models.Session, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]*models.Session, error)
	ListCompletedBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*models.Session, error)
	ListPeers(ctx context.Context, tx *gorm.DB, query PeerQuery) ([]*models.Session, error)
}
