package events

import (
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents the adaptive session lifecycle events
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
	EventRiskFlagged      EventType = "risk.flagged"
	EventProfileComputed  EventType = "profile.computed"
)

const (
	eventSource  = "adaptive-assessment-service"
	eventVersion = "1.0"
)

// AssessmentEvent is the envelope for every published event
type AssessmentEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID      string    `json:"session_id"`
	StudentID      string    `json:"student_id"`
	Subject        string    `json:"subject"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

type SessionCompletedEvent struct {
	SessionID   string           `json:"session_id"`
	StudentID   string           `json:"student_id"`
	Subject     string           `json:"subject"`
	FinalSkill  float64          `json:"final_skill"`
	Score       int              `json:"score"`
	CompletedAt time.Time        `json:"completed_at"`
	RiskIndex   *int             `json:"risk_index,omitempty"`
	RiskLevel   models.RiskLevel `json:"risk_level,omitempty"`
}

// Analytics event payloads

type RiskFlaggedEvent struct {
	SessionID string              `json:"session_id"`
	StudentID string              `json:"student_id"`
	Subject   string              `json:"subject"`
	RiskIndex int                 `json:"risk_index"`
	RiskLevel models.RiskLevel    `json:"risk_level"`
	Signals   []models.RiskSignal `json:"signals"`
}

type ProfileComputedEvent struct {
	SessionID       string             `json:"session_id"`
	ConfidenceIndex int                `json:"confidence_index"`
	StressLevel     int                `json:"stress_level"`
	Archetype       models.ArchetypeID `json:"archetype"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *AssessmentEvent {
	return &AssessmentEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionStartedEvent(session *models.Session) *AssessmentEvent {
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:      session.ID,
		StudentID:      session.StudentID,
		Subject:        session.Subject,
		TotalQuestions: session.TotalQuestions,
		StartedAt:      session.StartedAt,
	})
}

func NewSessionCompletedEvent(session *models.Session, score int, risk *models.RiskReport) *AssessmentEvent {
	data := SessionCompletedEvent{
		SessionID:  session.ID,
		StudentID:  session.StudentID,
		Subject:    session.Subject,
		FinalSkill: session.CurrentSkill,
		Score:      score,
	}
	if session.CompletedAt != nil {
		data.CompletedAt = *session.CompletedAt
	}
	if risk != nil {
		index := risk.RiskIndex
		data.RiskIndex = &index
		data.RiskLevel = risk.RiskLevel
	}
	return newEvent(EventSessionCompleted, data)
}

func NewRiskFlaggedEvent(session *models.Session, risk *models.RiskReport) *AssessmentEvent {
	return newEvent(EventRiskFlagged, RiskFlaggedEvent{
		SessionID: session.ID,
		StudentID: session.StudentID,
		Subject:   session.Subject,
		RiskIndex: risk.RiskIndex,
		RiskLevel: risk.RiskLevel,
		Signals:   risk.SignalList(),
	})
}

func NewProfileComputedEvent(profile *models.CognitiveProfile) *AssessmentEvent {
	return newEvent(EventProfileComputed, ProfileComputedEvent{
		SessionID:       profile.SessionID,
		ConfidenceIndex: profile.ConfidenceIndex,
		StressLevel:     profile.StressLevel,
		Archetype:       profile.ArchetypeID,
	})
}

// GenerateEventID returns a unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
