package postgres

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RiskReportPostgreSQL struct {
	db *gorm.DB
}

func NewRiskReportPostgreSQL(db *gorm.DB) repositories.RiskReportRepository {
	return &RiskReportPostgreSQL{db: db}
}

func (r RiskReportPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, report *models.RiskReport) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(report).Error
}

func (r RiskReportPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.RiskReport, error) {
	db := r.getDB(tx)
	var report models.RiskReport
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r RiskReportPostgreSQL) GetMultiple(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string]*models.RiskReport, error) {
	reportMap := make(map[string]*models.RiskReport, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return reportMap, nil
	}

	db := r.getDB(tx)
	var reports []models.RiskReport
	if err := db.WithContext(ctx).Where("session_id IN ?", sessionIDs).Find(&reports).Error; err != nil {
		return nil, err
	}
	for _, report := range reports {
		rCopy := report
		reportMap[report.SessionID] = &rCopy
	}
	return reportMap, nil
}

func (r RiskReportPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== COGNITIVE PROFILE REPOSITORY IMPLEMENTATION =====

type CognitiveProfilePostgreSQL struct {
	db *gorm.DB
}

func NewCognitiveProfilePostgreSQL(db *gorm.DB) repositories.CognitiveProfileRepository {
	return &CognitiveProfilePostgreSQL{db: db}
}

func (c CognitiveProfilePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, profile *models.CognitiveProfile) error {
	db := c.getDB(tx)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}

func (c CognitiveProfilePostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.CognitiveProfile, error) {
	db := c.getDB(tx)
	var profile models.CognitiveProfile
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c CognitiveProfilePostgreSQL) GetMultiple(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string]*models.CognitiveProfile, error) {
	profileMap := make(map[string]*models.CognitiveProfile, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return profileMap, nil
	}

	db := c.getDB(tx)
	var profiles []models.CognitiveProfile
	if err := db.WithContext(ctx).Where("session_id IN ?", sessionIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		pCopy := profile
		profileMap[profile.SessionID] = &pCopy
	}
	return profileMap, nil
}

func (c CognitiveProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
