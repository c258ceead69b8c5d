package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var emptyEventValue = datatypes.JSON(`{}`)

type telemetryService struct {
	repo      repositories.Repository
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewTelemetryService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) TelemetryService {
	return &telemetryService{
		repo:      repo,
		logger:    NewServiceLogger(logger, LogConfig{Service: "adaptive", Component: "telemetry"}),
		validator: validator,
		now:       time.Now,
	}
}

// RecordEvents appends every event of the batch to the session's log. The
// session may be active or completed but must belong to the student.
func (s *telemetryService) RecordEvents(ctx context.Context, sessionID string, req *TelemetryBatch, studentID string) (recorded int, err error) {
	op := s.logger.WithOperation(ctx, "record_events", studentID)
	defer func() { op.LogResult(sessionID, err) }()

	if err = s.validator.Validate(req); err != nil {
		return 0, err
	}

	if _, err = s.repo.Session().GetForStudent(ctx, nil, sessionID, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	if len(req.Events) == 0 {
		return 0, nil
	}

	// Events of one batch keep their submitted order under recorded_at ordering
	recordedAt := s.now()
	batch := make([]*models.TelemetryEvent, 0, len(req.Events))
	for i, in := range req.Events {
		batch = append(batch, &models.TelemetryEvent{
			ID:             uuid.NewString(),
			SessionID:      sessionID,
			Type:           models.TelemetryEventType(in.Type),
			QuestionNumber: questionNumber(in.QuestionNumber),
			Value:          eventValue(in.Value),
			RecordedAt:     recordedAt.Add(time.Duration(i) * time.Microsecond),
		})
	}

	if err = s.repo.Telemetry().CreateBatch(ctx, nil, batch); err != nil {
		return 0, fmt.Errorf("failed to record events: %w", err)
	}
	return len(batch), nil
}

// questionNumber stores a missing or zero question number as null
func questionNumber(n *int) *int {
	if n == nil || *n == 0 {
		return nil
	}
	v := *n
	return &v
}

// eventValue stores absent, null or non-JSON values as an empty object
func eventValue(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" || !json.Valid(raw) {
		return emptyEventValue
	}
	return datatypes.JSON(raw)
}
