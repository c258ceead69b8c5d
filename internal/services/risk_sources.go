package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/risk"
)

// repositoryStore feeds the risk scorer and the cognitive profiler from the database
type repositoryStore struct {
	repo repositories.Repository
}

func (s repositoryStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s repositoryStore) ListAnswers(ctx context.Context, sessionID string) ([]*models.AnsweredQuestion, error) {
	return s.repo.Answer().ListBySession(ctx, nil, sessionID)
}

func (s repositoryStore) ListEvents(ctx context.Context, sessionID string) ([]*models.TelemetryEvent, error) {
	return s.repo.Telemetry().ListBySession(ctx, nil, sessionID)
}

// peerSource reads comparison sessions from the fingerprint index and falls
// back to the database unless the index yields a full set of limit peers.
type peerSource struct {
	repo   repositories.Repository
	index  *cache.FingerprintIndex
	logger *slog.Logger
}

func newPeerSource(repo repositories.Repository, index *cache.FingerprintIndex, logger *slog.Logger) *peerSource {
	return &peerSource{repo: repo, index: index, logger: logger}
}

func (p *peerSource) Peers(ctx context.Context, session *models.Session, limit int) ([]risk.Fingerprint, error) {
	if p.index != nil {
		peers, err := p.index.Peers(ctx, session, limit)
		if err == nil && len(peers) > 0 && len(peers) >= limit {
			return peers, nil
		}
		if err != nil {
			p.logger.Warn("Fingerprint index unavailable, reading peers from database",
				"session_id", session.ID,
				"error", err)
			metrics.RecordAnalyticsFailure(metrics.StageFingerprint)
		}
	}
	return p.fromDatabase(ctx, session, limit)
}

func (p *peerSource) fromDatabase(ctx context.Context, session *models.Session, limit int) ([]risk.Fingerprint, error) {
	sessions, err := p.repo.Session().ListPeers(ctx, nil, repositories.PeerQuery{
		Subject:          session.Subject,
		ExcludeSessionID: session.ID,
		ExcludeStudentID: session.StudentID,
		Limit:            limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list peer sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	answers, err := p.repo.Answer().ListBySessions(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer answers: %w", err)
	}

	peers := make([]risk.Fingerprint, 0, len(sessions))
	for _, s := range sessions {
		peers = append(peers, risk.Fingerprint{
			SessionID: s.ID,
			StudentID: s.StudentID,
			Answers:   models.AnswerSequence(answers[s.ID]),
		})
	}
	return peers, nil
}
