// Package cognitive derives a behavioral profile (confidence, stress and an
// archetype) from the telemetry of a completed session.
package cognitive

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

// EventSource loads the telemetry log of a session.
type EventSource interface {
	ListEvents(ctx context.Context, sessionID string) ([]*models.TelemetryEvent, error)
}

// Analysis is the pure result of Analyze, before persistence.
type Analysis struct {
	ConfidenceIndex int
	StressLevel     int
	Archetype       models.Archetype
	Stats           models.CognitiveStats
	Breakdown       []models.QuestionBreakdown
}

type Profiler struct {
	events EventSource
	rules  []Rule
	now    func() time.Time
}

func NewProfiler(events EventSource) *Profiler {
	return &Profiler{
		events: events,
		rules:  DefaultRules,
		now:    time.Now,
	}
}

// Compute loads the session's events and builds its profile. A session with
// no telemetry still yields a profile.
func (p *Profiler) Compute(ctx context.Context, sessionID string) (*models.CognitiveProfile, error) {
	events, err := p.events.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load telemetry: %w", err)
	}

	analysis := AnalyzeWithRules(events, p.rules)
	return analysis.Profile(sessionID, p.now())
}

// Analyze runs the profile computation with the default archetype table.
func Analyze(events []*models.TelemetryEvent) Analysis {
	return AnalyzeWithRules(events, DefaultRules)
}

func AnalyzeWithRules(events []*models.TelemetryEvent, rules []Rule) Analysis {
	r := replayEvents(events)

	questions := r.questionCount()
	changes, skips := r.totals()
	changeRate := float64(changes) / float64(questions)
	skipRate := float64(skips) / float64(questions)

	avgAnswerMs := 0
	if len(r.answerTimes) > 0 {
		avgAnswerMs = int(math.Round(utils.Mean(r.answerTimes)))
	}

	ci := confidenceIndex(r)
	sl := stressLevel(r)

	return Analysis{
		ConfidenceIndex: ci,
		StressLevel:     sl,
		Archetype: Classify(rules, Features{
			Confidence:  ci,
			Stress:      sl,
			SkipRate:    skipRate,
			ChangeRate:  changeRate,
			AvgAnswerMs: avgAnswerMs,
		}),
		Stats: models.CognitiveStats{
			TotalQuestions:     questions,
			AvgAnswerMs:        avgAnswerMs,
			TotalAnswerChanges: changes,
			TotalSkips:         skips,
			TotalPauses:        len(r.pauses),
			ChangeRate:         utils.RoundTo(changeRate, 3),
			SkipRate:           utils.RoundTo(skipRate, 3),
			AnswerTimeStdDevMs: int(math.Round(utils.SampleStdDev(r.answerTimes))),
		},
		Breakdown: buildBreakdown(r),
	}
}

func buildBreakdown(r *replay) []models.QuestionBreakdown {
	breakdown := make([]models.QuestionBreakdown, 0, len(r.questions))
	for _, q := range r.questions {
		var avg *int
		if len(q.times) > 0 {
			v := int(math.Round(utils.Mean(q.times)))
			avg = &v
		}
		breakdown = append(breakdown, models.QuestionBreakdown{
			QuestionNumber:  q.number,
			AvgAnswerMs:     avg,
			AnswerChanges:   q.changes,
			Skipped:         q.skips > 0,
			PauseCount:      q.pauses,
			ReturnVisits:    q.returnVisits,
			LocalConfidence: localConfidence(q),
		})
	}
	return breakdown
}

// Profile converts the analysis into its persisted form.
func (a Analysis) Profile(sessionID string, computedAt time.Time) (*models.CognitiveProfile, error) {
	traits, err := models.ToJSON(a.Archetype.Traits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode traits: %w", err)
	}
	stats, err := models.ToJSON(a.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}
	breakdown, err := models.ToJSON(a.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to encode breakdown: %w", err)
	}

	return &models.CognitiveProfile{
		SessionID:       sessionID,
		ConfidenceIndex: a.ConfidenceIndex,
		StressLevel:     a.StressLevel,
		ArchetypeID:     a.Archetype.ID,
		Label:           a.Archetype.Label,
		Emoji:           a.Archetype.Emoji,
		Color:           a.Archetype.Color,
		Description:     a.Archetype.Description,
		Traits:          traits,
		Stats:           stats,
		Breakdown:       breakdown,
		ComputedAt:      computedAt,
	}, nil
}
