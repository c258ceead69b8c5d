package models

import (
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Session is one adaptive assessment attempt by a student.
type Session struct {
	ID                string        `json:"id" gorm:"primaryKey;size:36"`
	StudentID         string        `json:"student_id" gorm:"not null;size:64;index"`
	Subject           string        `json:"subject" gorm:"not null;size:200;index:idx_sessions_subject_status"`
	CurrentSkill      float64       `json:"current_skill" gorm:"not null"`
	QuestionsAnswered int           `json:"questions_answered" gorm:"not null;default:0"`
	TotalQuestions    int           `json:"total_questions" gorm:"not null"`
	Status            SessionStatus `json:"status" gorm:"not null;size:20;default:active;index:idx_sessions_subject_status"`
	StartedAt         time.Time     `json:"started_at" gorm:"not null;index"`
	CompletedAt       *time.Time    `json:"completed_at" gorm:"index"`

	// Denormalized from the risk report
	RiskIndex *int       `json:"risk_index"`
	RiskLevel *RiskLevel `json:"risk_level" gorm:"size:20"`

	Answers []AnsweredQuestion `json:"answers,omitempty" gorm:"foreignKey:SessionID"`
}

func (Session) TableName() string {
	return "adaptive_sessions"
}

func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// OwnedBy reports whether the session belongs to the given student.
func (s *Session) OwnedBy(studentID string) bool {
	return s.StudentID == studentID
}
