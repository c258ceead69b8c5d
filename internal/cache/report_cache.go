package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
)

const (
	riskKeyPrefix    = "adaptive:risk:"
	profileKeyPrefix = "adaptive:profile:"
)

func RiskKey(sessionID string) string    { return riskKeyPrefix + sessionID }
func ProfileKey(sessionID string) string { return profileKeyPrefix + sessionID }

// ReportCache fronts stored risk reports and cognitive profiles. Writers store
// through with SetRisk/SetProfile; readers only fill a missing entry, so a read
// racing a save never overwrites the newer value. Cache failures are logged
// and treated as misses.
type ReportCache struct {
	cache  CacheService
	ttl    func() time.Duration
	logger *slog.Logger
}

// NewReportCache takes the ttl as a func so reloaded tuning applies to new entries
func NewReportCache(cache CacheService, ttl func() time.Duration, logger *slog.Logger) *ReportCache {
	return &ReportCache{cache: cache, ttl: ttl, logger: logger}
}

func (c *ReportCache) GetRisk(ctx context.Context, sessionID string) (*models.RiskReport, bool) {
	var report models.RiskReport
	if !c.get(ctx, RiskKey(sessionID), &report) {
		return nil, false
	}
	return &report, true
}

// SetRisk stores a freshly saved report
func (c *ReportCache) SetRisk(ctx context.Context, report *models.RiskReport) {
	c.set(ctx, RiskKey(report.SessionID), report)
}

// FillRisk caches a report read from the database unless an entry exists
func (c *ReportCache) FillRisk(ctx context.Context, report *models.RiskReport) {
	c.fill(ctx, RiskKey(report.SessionID), report)
}

func (c *ReportCache) GetProfile(ctx context.Context, sessionID string) (*models.CognitiveProfile, bool) {
	var profile models.CognitiveProfile
	if !c.get(ctx, ProfileKey(sessionID), &profile) {
		return nil, false
	}
	return &profile, true
}

func (c *ReportCache) SetProfile(ctx context.Context, profile *models.CognitiveProfile) {
	c.set(ctx, ProfileKey(profile.SessionID), profile)
}

func (c *ReportCache) FillProfile(ctx context.Context, profile *models.CognitiveProfile) {
	c.fill(ctx, ProfileKey(profile.SessionID), profile)
}

func (c *ReportCache) get(ctx context.Context, key string, dest interface{}) bool {
	err := c.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Report cache read failed", "key", key, "error", err)
	}
	return false
}

// set writes through; when that fails the old entry is dropped so it cannot
// outlive the save
func (c *ReportCache) set(ctx context.Context, key string, value interface{}) {
	if err := c.cache.Set(ctx, key, value, c.ttl()); err != nil {
		c.logger.Warn("Report cache write failed", "key", key, "error", err)
		c.delete(ctx, key)
	}
}

func (c *ReportCache) fill(ctx context.Context, key string, value interface{}) {
	if err := c.cache.SetIfAbsent(ctx, key, value, c.ttl()); err != nil {
		c.logger.Warn("Report cache write failed", "key", key, "error", err)
	}
}

func (c *ReportCache) delete(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("Report cache invalidation failed", "key", key, "error", err)
	}
}
