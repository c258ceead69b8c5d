package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/risk"
	"github.com/redis/go-redis/v9"
)

const fingerprintKeyPrefix = "adaptive:fingerprints:"

// retainFactor sizes each subject set as a multiple of the peer limit so a
// student's own sessions do not crowd other students out of the window.
const retainFactor = 4

func FingerprintKey(subject string) string { return fingerprintKeyPrefix + subject }

// FingerprintIndex keeps the answer lists of recently completed sessions in
// one sorted set per subject, scored by completion time.
type FingerprintIndex struct {
	client *redis.Client
}

func NewFingerprintIndex(client *redis.Client) *FingerprintIndex {
	return &FingerprintIndex{client: client}
}

// Add records a completed session and trims the subject set to the newest
// peerLimit*retainFactor entries.
func (f *FingerprintIndex) Add(ctx context.Context, session *models.Session, answers []string, peerLimit int) error {
	member, err := json.Marshal(risk.Fingerprint{
		SessionID: session.ID,
		StudentID: session.StudentID,
		Answers:   answers,
	})
	if err != nil {
		return fmt.Errorf("failed to encode fingerprint: %w", err)
	}

	completedAt := time.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	key := FingerprintKey(session.Subject)
	pipe := f.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(completedAt.UnixMilli()), Member: string(member)})
	if peerLimit > 0 {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-peerLimit*retainFactor-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index fingerprint: %w", err)
	}
	return nil
}

// Peers implements risk.PeerSource, newest first. It can return fewer than
// limit peers when the retained window holds too many of the student's own
// sessions.
func (f *FingerprintIndex) Peers(ctx context.Context, session *models.Session, limit int) ([]risk.Fingerprint, error) {
	members, err := f.client.ZRevRange(ctx, FingerprintKey(session.Subject), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprints: %w", err)
	}

	peers := make([]risk.Fingerprint, 0, len(members))
	for _, member := range members {
		var fp risk.Fingerprint
		if err := json.Unmarshal([]byte(member), &fp); err != nil {
			continue
		}
		if fp.SessionID == session.ID || fp.StudentID == session.StudentID {
			continue
		}
		peers = append(peers, fp)
		if limit > 0 && len(peers) == limit {
			break
		}
	}
	return peers, nil
}
