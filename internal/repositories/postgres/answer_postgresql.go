package postgres

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.AnsweredQuestion) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(answer).Error
}

func (a AnswerPostgreSQL) ListBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.AnsweredQuestion, error) {
	db := a.getDB(tx)
	var answers []*models.AnsweredQuestion
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_number ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) ListBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []string) (map[string][]*models.AnsweredQuestion, error) {
	grouped := make(map[string][]*models.AnsweredQuestion, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return grouped, nil
	}

	db := a.getDB(tx)
	var answers []*models.AnsweredQuestion
	if err := db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("session_id ASC, question_number ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	for _, answer := range answers {
		grouped[answer.SessionID] = append(grouped[answer.SessionID], answer)
	}
	return grouped, nil
}

func (a AnswerPostgreSQL) CountCorrect(ctx context.Context, tx *gorm.DB, sessionID string) (int, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.AnsweredQuestion{}).
		Where("session_id = ? AND is_correct = ?", sessionID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (a AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ===== TELEMETRY REPOSITORY IMPLEMENTATION =====

type TelemetryPostgreSQL struct {
	db *gorm.DB
}

func NewTelemetryPostgreSQL(db *gorm.DB) repositories.TelemetryRepository {
	return &TelemetryPostgreSQL{db: db}
}

func (t TelemetryPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, events []*models.TelemetryEvent) error {
	if len(events) == 0 {
		return nil
	}
	db := t.getDB(tx)
	return db.WithContext(ctx).CreateInBatches(events, 100).Error
}

func (t TelemetryPostgreSQL) ListBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.TelemetryEvent, error) {
	db := t.getDB(tx)
	var events []*models.TelemetryEvent
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("recorded_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (t TelemetryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}
