package postgres

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository wires every gorm-backed store over one connection pool. The
// queries are dialect neutral and run on Postgres and SQLite alike.
type Repository struct {
	db               *gorm.DB
	session          repositories.SessionRepository
	answer           repositories.AnswerRepository
	telemetry        repositories.TelemetryRepository
	riskReport       repositories.RiskReportRepository
	cognitiveProfile repositories.CognitiveProfileRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:               db,
		session:          NewSessionPostgreSQL(db),
		answer:           NewAnswerPostgreSQL(db),
		telemetry:        NewTelemetryPostgreSQL(db),
		riskReport:       NewRiskReportPostgreSQL(db),
		cognitiveProfile: NewCognitiveProfilePostgreSQL(db),
	}
}

func (r *Repository) Session() repositories.SessionRepository     { return r.session }
func (r *Repository) Answer() repositories.AnswerRepository       { return r.answer }
func (r *Repository) Telemetry() repositories.TelemetryRepository { return r.telemetry }
func (r *Repository) RiskReport() repositories.RiskReportRepository {
	return r.riskReport
}
func (r *Repository) CognitiveProfile() repositories.CognitiveProfileRepository {
	return r.cognitiveProfile
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
