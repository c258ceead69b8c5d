package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/questiongen"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/report"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionService struct {
	repo      repositories.Repository
	generator questiongen.QuestionGenerator
	analytics AnalyticsService
	events    EventService
	settings  *config.AnalyticsStore
	rng       adaptive.RandSource
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewSessionService(
	repo repositories.Repository,
	generator questiongen.QuestionGenerator,
	analytics AnalyticsService,
	events EventService,
	settings *config.AnalyticsStore,
	rng adaptive.RandSource,
	logger *slog.Logger,
	validator *validator.Validator,
) SessionService {
	return &sessionService{
		repo:      repo,
		generator: generator,
		analytics: analytics,
		events:    events,
		settings:  settings,
		rng:       rng,
		logger:    NewServiceLogger(logger, LogConfig{Service: "adaptive", Component: "session"}),
		validator: validator,
		now:       time.Now,
	}
}

// ===== SESSION LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, studentID string) (result *report.StartResult, err error) {
	op := s.logger.WithOperation(ctx, "start_session", studentID)
	var sessionID string
	defer func() { op.LogResult(sessionID, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings := s.settings.Current()
	session := &models.Session{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		Subject:        req.Subject,
		CurrentSkill:   adaptive.InitialSkill,
		TotalQuestions: settings.TotalQuestions,
		Status:         models.SessionActive,
		StartedAt:      s.now(),
	}
	sessionID = session.ID

	if err = s.repo.Session().Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsStarted.Inc()

	difficulty := adaptive.NewSelector(s.rng, settings.Jitter).Next(session.CurrentSkill)
	question, err := s.generator.Generate(ctx, session.Subject, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionGeneration, err)
	}

	if perr := s.events.NotifySessionStarted(ctx, session); perr != nil {
		s.logPublishFailure(ctx, "session.started", session.ID, perr)
	}

	return report.Start(session, difficulty, question), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest, studentID string) (result *AnswerResult, err error) {
	op := s.logger.WithOperation(ctx, "submit_answer", studentID)
	defer func() { op.LogResult(sessionID, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings := s.settings.Current()
	estimator := adaptive.NewEstimator(settings.LearningRate)

	var (
		session *models.Session
		answer  *models.AnsweredQuestion
		isLast  bool
	)

	// The answer row and the session counter move together
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		session, txErr = s.repo.Session().GetActiveForStudent(ctx, tx, sessionID, studentID)
		if txErr != nil {
			if repositories.IsNotFoundError(txErr) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", txErr)
		}

		isCorrect := req.StudentAnswer == req.CorrectAnswer
		skillBefore := session.CurrentSkill
		skillAfter := estimator.Update(skillBefore, req.Difficulty, isCorrect)
		questionNumber := session.QuestionsAnswered + 1

		options, txErr := models.ToJSON(req.Options)
		if txErr != nil {
			return fmt.Errorf("failed to encode options: %w", txErr)
		}

		answer = &models.AnsweredQuestion{
			ID:                 uuid.NewString(),
			SessionID:          session.ID,
			QuestionNumber:     questionNumber,
			QuestionText:       req.QuestionText,
			Options:            options,
			CorrectAnswer:      req.CorrectAnswer,
			StudentAnswer:      req.StudentAnswer,
			IsCorrect:          isCorrect,
			QuestionDifficulty: req.Difficulty,
			SkillBefore:        skillBefore,
			SkillAfter:         skillAfter,
			Topic:              req.Topic,
			Explanation:        req.Explanation,
			CreatedAt:          s.now(),
		}
		if txErr = s.repo.Answer().Create(ctx, tx, answer); txErr != nil {
			if repositories.IsDuplicateKeyError(txErr) {
				return ErrAnswerConflict
			}
			return fmt.Errorf("failed to save answer: %w", txErr)
		}

		isLast = questionNumber >= session.TotalQuestions
		progress := repositories.SessionProgress{
			CurrentSkill:      skillAfter,
			QuestionsAnswered: questionNumber,
			Status:            models.SessionActive,
		}
		if isLast {
			completedAt := s.now()
			progress.Status = models.SessionCompleted
			progress.CompletedAt = &completedAt
		}
		if txErr = s.repo.Session().UpdateProgress(ctx, tx, session.ID, progress); txErr != nil {
			return fmt.Errorf("failed to update session: %w", txErr)
		}

		session.CurrentSkill = progress.CurrentSkill
		session.QuestionsAnswered = progress.QuestionsAnswered
		session.Status = progress.Status
		session.CompletedAt = progress.CompletedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordAnswer(answer.IsCorrect)

	if isLast {
		return s.complete(ctx, session)
	}

	difficulty := adaptive.NewSelector(s.rng, settings.Jitter).Next(answer.SkillAfter)
	question, err := s.generator.Generate(ctx, session.Subject, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionGeneration, err)
	}

	return &AnswerResult{Next: report.NextQuestion(answer, session, difficulty, question)}, nil
}

// complete builds the final summary. Analytics run best-effort.
func (s *sessionService) complete(ctx context.Context, session *models.Session) (*AnswerResult, error) {
	answers, err := s.repo.Answer().ListBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	risk := s.analytics.CompleteSession(ctx, session, answers)

	s.logger.Logger().InfoContext(ctx, "Session completed",
		"session_id", session.ID,
		"student_id", session.StudentID,
		"final_skill", session.CurrentSkill,
		"risk_computed", risk.IsPresent())

	return &AnswerResult{Completion: report.Completion(session, answers, risk)}, nil
}

func (s *sessionService) History(ctx context.Context, studentID string) ([]report.HistoryEntry, error) {
	sessions, err := s.repo.Session().ListByStudent(ctx, nil, studentID, s.settings.Current().HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return report.History(sessions), nil
}

func (s *sessionService) logPublishFailure(ctx context.Context, event, sessionID string, err error) {
	s.logger.Logger().WarnContext(ctx, "Failed to publish event",
		"event", event,
		"session_id", sessionID,
		"error", err)
	metrics.RecordAnalyticsFailure(metrics.StagePublish)
}
