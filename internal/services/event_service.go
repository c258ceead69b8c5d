package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

type eventService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEventService(publisher events.EventPublisher, logger *slog.Logger) EventService {
	return &eventService{
		publisher: publisher,
		logger:    logger,
	}
}

// ===== SESSION EVENTS =====

func (s *eventService) NotifySessionStarted(ctx context.Context, session *models.Session) error {
	s.logger.Debug("Publishing session started event", "session_id", session.ID)
	return s.publish(ctx, events.NewSessionStartedEvent(session))
}

func (s *eventService) NotifySessionCompleted(ctx context.Context, session *models.Session, score int, risk utils.Optional[*models.RiskReport]) error {
	s.logger.Debug("Publishing session completed event", "session_id", session.ID, "score", score)

	report, _ := risk.Get()
	return s.publish(ctx, events.NewSessionCompletedEvent(session, score, report))
}

// ===== ANALYTICS EVENTS =====

func (s *eventService) NotifyRiskFlagged(ctx context.Context, session *models.Session, risk *models.RiskReport) error {
	if !risk.IsFlagged() {
		return nil
	}

	s.logger.Info("Publishing risk flagged event",
		"session_id", session.ID,
		"student_id", session.StudentID,
		"risk_index", risk.RiskIndex,
		"risk_level", risk.RiskLevel)
	return s.publish(ctx, events.NewRiskFlaggedEvent(session, risk))
}

func (s *eventService) NotifyProfileComputed(ctx context.Context, profile *models.CognitiveProfile) error {
	s.logger.Debug("Publishing profile computed event", "session_id", profile.SessionID, "archetype", profile.ArchetypeID)
	return s.publish(ctx, events.NewProfileComputedEvent(profile))
}

func (s *eventService) publish(ctx context.Context, event *events.AssessmentEvent) error {
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}
