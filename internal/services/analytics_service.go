package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/cognitive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/report"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/risk"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"gorm.io/gorm"
)

type analyticsService struct {
	repo     repositories.Repository
	store    repositoryStore
	peers    risk.PeerSource
	index    *cache.FingerprintIndex
	reports  *cache.ReportCache
	events   EventService
	settings *config.AnalyticsStore
	logger   *slog.Logger
}

// NewAnalyticsService wires risk scoring and profiling. index may be nil when
// Redis is disabled; peers are then read from the database.
func NewAnalyticsService(
	repo repositories.Repository,
	index *cache.FingerprintIndex,
	reports *cache.ReportCache,
	events EventService,
	settings *config.AnalyticsStore,
	logger *slog.Logger,
) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		store:    repositoryStore{repo: repo},
		peers:    newPeerSource(repo, index, logger),
		index:    index,
		reports:  reports,
		events:   events,
		settings: settings,
		logger:   logger.With("service", "adaptive", "component", "analytics"),
	}
}

// ===== SESSION COMPLETION =====

func (s *analyticsService) CompleteSession(ctx context.Context, session *models.Session, answers []*models.AnsweredQuestion) utils.Optional[*models.RiskReport] {
	riskReport, err := s.computeRisk(ctx, session.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Risk analysis failed", "session_id", session.ID, "error", err)
		metrics.RecordAnalyticsFailure(metrics.StageRisk)
		riskReport = utils.None[*models.RiskReport]()
	}

	if _, err := s.computeProfile(ctx, session.ID); err != nil {
		s.logger.ErrorContext(ctx, "Cognitive profiling failed", "session_id", session.ID, "error", err)
		metrics.RecordAnalyticsFailure(metrics.StageProfile)
	}

	if s.index != nil {
		if err := s.index.Add(ctx, session, models.AnswerSequence(answers), s.settings.Current().PeerLimit); err != nil {
			s.logger.WarnContext(ctx, "Failed to index answer fingerprint", "session_id", session.ID, "error", err)
			metrics.RecordAnalyticsFailure(metrics.StageFingerprint)
		}
	}

	score := 0
	for _, a := range answers {
		if a.IsCorrect {
			score++
		}
	}
	s.notify(ctx, session.ID, s.events.NotifySessionCompleted(ctx, session, score, riskReport))
	if r, ok := riskReport.Get(); ok {
		s.notify(ctx, session.ID, s.events.NotifyRiskFlagged(ctx, session, r))
	}

	return riskReport
}

// ===== RISK REPORTS =====

func (s *analyticsService) GetRiskReport(ctx context.Context, sessionID string) (*report.RiskReportView, error) {
	if cached, ok := s.reports.GetRisk(ctx, sessionID); ok {
		return report.RiskReport(cached), nil
	}

	stored, err := s.repo.RiskReport().GetBySession(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get risk report: %w", err)
	}

	s.reports.FillRisk(ctx, stored)
	return report.RiskReport(stored), nil
}

func (s *analyticsService) RecomputeRisk(ctx context.Context, sessionID string) (*report.RiskReportView, error) {
	session, err := s.completedSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.computeRisk(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	computed, ok := result.Get()
	if !ok {
		return nil, ErrNoAnswers
	}

	s.notify(ctx, sessionID, s.events.NotifyRiskFlagged(ctx, session, computed))
	return report.RiskReport(computed), nil
}

// computeRisk scores the session and persists the report when there is one
func (s *analyticsService) computeRisk(ctx context.Context, sessionID string) (utils.Optional[*models.RiskReport], error) {
	scorer := risk.NewScorer(s.store, s.peers, s.settings.Current().PeerLimit)

	result, err := scorer.Compute(ctx, sessionID)
	if err != nil {
		return utils.None[*models.RiskReport](), err
	}
	computed, ok := result.Get()
	if !ok {
		return result, nil
	}

	if err := s.saveRisk(ctx, computed); err != nil {
		return utils.None[*models.RiskReport](), err
	}
	return result, nil
}

// saveRisk overwrites the stored report and its denormalized session columns
func (s *analyticsService) saveRisk(ctx context.Context, r *models.RiskReport) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.RiskReport().Upsert(ctx, tx, r); err != nil {
			return fmt.Errorf("failed to save risk report: %w", err)
		}
		if err := s.repo.Session().UpdateRisk(ctx, tx, r.SessionID, r.RiskIndex, r.RiskLevel); err != nil {
			return fmt.Errorf("failed to update session risk: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.reports.SetRisk(ctx, r)
	metrics.ObserveRiskIndex(r.RiskIndex)
	return nil
}

// ===== COGNITIVE PROFILES =====

func (s *analyticsService) ComputeProfile(ctx context.Context, sessionID string, caller models.Caller) (*report.ProfileView, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !caller.IsStaff() && !session.OwnedBy(caller.UserID) {
		return nil, NewPermissionError(caller.UserID, sessionID, "session", "profile", "not owned by caller")
	}
	if !session.IsCompleted() {
		return nil, sessionNotCompleted(sessionID)
	}

	profile, err := s.computeProfile(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return report.Profile(profile), nil
}

func (s *analyticsService) GetProfile(ctx context.Context, sessionID string) (*report.ProfileView, error) {
	if cached, ok := s.reports.GetProfile(ctx, sessionID); ok {
		return report.Profile(cached), nil
	}

	stored, err := s.repo.CognitiveProfile().GetBySession(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get cognitive profile: %w", err)
	}

	s.reports.FillProfile(ctx, stored)
	return report.Profile(stored), nil
}

func (s *analyticsService) computeProfile(ctx context.Context, sessionID string) (*models.CognitiveProfile, error) {
	profile, err := cognitive.NewProfiler(s.store).Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CognitiveProfile().Upsert(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to save cognitive profile: %w", err)
	}
	s.reports.SetProfile(ctx, profile)

	s.notify(ctx, sessionID, s.events.NotifyProfileComputed(ctx, profile))
	return profile, nil
}

// ===== BULK RECOMPUTE =====

func (s *analyticsService) RecomputeSubject(ctx context.Context, subject string) (*RecomputeSummary, error) {
	sessions, err := s.repo.Session().ListCompletedBySubject(ctx, nil, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summary := &RecomputeSummary{Subject: subject, Sessions: len(sessions)}
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.computeRisk(ctx, session.ID)
		switch {
		case err != nil:
			summary.Failures++
			s.logger.ErrorContext(ctx, "Risk analysis failed", "session_id", session.ID, "error", err)
			metrics.RecordAnalyticsFailure(metrics.StageRisk)
		case result.IsPresent():
			summary.RiskReports++
		}

		if _, err := s.computeProfile(ctx, session.ID); err != nil {
			summary.Failures++
			s.logger.ErrorContext(ctx, "Cognitive profiling failed", "session_id", session.ID, "error", err)
			metrics.RecordAnalyticsFailure(metrics.StageProfile)
			continue
		}
		summary.Profiles++
	}

	s.logger.InfoContext(ctx, "Subject analytics recomputed",
		"subject", subject,
		"sessions", summary.Sessions,
		"risk_reports", summary.RiskReports,
		"profiles", summary.Profiles,
		"failures", summary.Failures)
	return summary, nil
}

// ===== HELPERS =====

func (s *analyticsService) completedSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !session.IsCompleted() {
		return nil, sessionNotCompleted(sessionID)
	}
	return session, nil
}

func (s *analyticsService) notify(ctx context.Context, sessionID string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "Failed to publish event", "session_id", sessionID, "error", err)
	metrics.RecordAnalyticsFailure(metrics.StagePublish)
}
