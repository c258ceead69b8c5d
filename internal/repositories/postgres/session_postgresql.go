package postgres

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	db := s.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetForStudent(ctx context.Context, tx *gorm.DB, id, studentID string) (*models.Session, error) {
	db := s.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).
		Where("id = ? AND student_id = ?", id, studentID).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetActiveForStudent(ctx context.Context, tx *gorm.DB, id, studentID string) (*models.Session, error) {
	db := s.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).
		Where("id = ? AND student_id = ? AND status = ?", id, studentID, models.SessionActive).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) UpdateProgress(ctx context.Context, tx *gorm.DB, id string, progress repositories.SessionProgress) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_skill":      progress.CurrentSkill,
			"questions_answered": progress.QuestionsAnswered,
			"status":             progress.Status,
			"completed_at":       progress.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s SessionPostgreSQL) UpdateRisk(ctx context.Context, tx *gorm.DB, id string, riskIndex int, level models.RiskLevel) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"risk_index": riskIndex,
			"risk_level": level,
		}).Error
}

func (s SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.Session, error) {
	db := s.getDB(tx)
	var sessions []*models.Session

	query := db.WithContext(ctx).Model(&models.Session{})
	query = s.applyFilters(query, filters)
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]*models.Session, error) {
	return s.List(ctx, tx, repositories.SessionFilters{StudentID: studentID, Limit: limit})
}

func (s SessionPostgreSQL) ListCompletedBySubject(ctx context.Context, tx *gorm.DB, subject string) ([]*models.Session, error) {
	db := s.getDB(tx)
	var sessions []*models.Session
	if err := db.WithContext(ctx).
		Where("subject = ? AND status = ?", subject, models.SessionCompleted).
		Order("completed_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) ListPeers(ctx context.Context, tx *gorm.DB, q repositories.PeerQuery) ([]*models.Session, error) {
	db := s.getDB(tx)
	var sessions []*models.Session
	query := db.WithContext(ctx).
		Where("subject = ? AND status = ? AND student_id <> ? AND id <> ?",
			q.Subject, models.SessionCompleted, q.ExcludeStudentID, q.ExcludeSessionID).
		Order("completed_at DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.StudentID != "" {
		query = query.Where("student_id = ?", filters.StudentID)
	}
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

func (s SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
