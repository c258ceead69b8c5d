// Package risk scores completed sessions for likely cheating from telemetry,
// grading history and answer overlap with other students.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

// DefaultPeerLimit caps how many recent peer sessions are compared.
const DefaultPeerLimit = 50

const (
	maxPasteScore      = 25
	maxSwitchScore     = 15
	maxSpeedScore      = 20
	maxSpikeScore      = 20
	maxSimilarityScore = 30
	maxRunScore        = 20

	similarityThreshold = 0.80
	similaritySpan      = 0.20
	minIdenticalRun     = 5
)

// Store loads the session-scoped inputs of a risk computation.
// GetSession returns nil without error when the session does not exist.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListAnswers(ctx context.Context, sessionID string) ([]*models.AnsweredQuestion, error)
	ListEvents(ctx context.Context, sessionID string) ([]*models.TelemetryEvent, error)
}

// PeerSource returns up to limit fingerprints of the most recently completed
// sessions in the same subject, excluding the session and its student.
type PeerSource interface {
	Peers(ctx context.Context, session *models.Session, limit int) ([]Fingerprint, error)
}

// Input is everything Score needs, already loaded.
type Input struct {
	Session *models.Session
	Answers []*models.AnsweredQuestion
	Events  []*models.TelemetryEvent
	Peers   []Fingerprint
}

type Scorer struct {
	store     Store
	peers     PeerSource
	peerLimit int
	now       func() time.Time
}

func NewScorer(store Store, peers PeerSource, peerLimit int) *Scorer {
	if peerLimit <= 0 {
		peerLimit = DefaultPeerLimit
	}
	return &Scorer{
		store:     store,
		peers:     peers,
		peerLimit: peerLimit,
		now:       time.Now,
	}
}

// Compute loads the session and scores it. The result is empty when the
// session does not exist or has no answered questions.
func (s *Scorer) Compute(ctx context.Context, sessionID string) (utils.Optional[*models.RiskReport], error) {
	none := utils.None[*models.RiskReport]()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return none, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return none, nil
	}

	answers, err := s.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return none, fmt.Errorf("failed to load answers: %w", err)
	}
	if len(answers) == 0 {
		return none, nil
	}

	events, err := s.store.ListEvents(ctx, sessionID)
	if err != nil {
		return none, fmt.Errorf("failed to load telemetry: %w", err)
	}

	peers, err := s.peers.Peers(ctx, session, s.peerLimit)
	if err != nil {
		return none, fmt.Errorf("failed to load peer sessions: %w", err)
	}

	result, err := Score(Input{Session: session, Answers: answers, Events: events, Peers: peers})
	if err != nil {
		return none, err
	}
	if report, ok := result.Get(); ok {
		report.ComputedAt = s.now()
	}
	return result, nil
}

// encodeSignals renders the signal list for the JSON column.
var encodeSignals = models.ToJSON

// Score is the pure risk computation. Answers must be ordered by question number.
func Score(in Input) (utils.Optional[*models.RiskReport], error) {
	none := utils.None[*models.RiskReport]()
	if in.Session == nil || len(in.Answers) == 0 {
		return none, nil
	}

	t := tally{signals: []models.RiskSignal{}}

	t.scorePaste(in.Events)
	t.scoreTabSwitches(in.Events)
	t.scoreSpeed(in.Events)
	t.scoreSpike(in.Answers)
	t.scoreSimilarity(models.AnswerSequence(in.Answers), in.Peers, in.Session)

	index := min(100, t.total)
	signals, err := encodeSignals(t.signals)
	if err != nil {
		return none, fmt.Errorf("failed to encode risk signals: %w", err)
	}

	b := t.breakdown
	return utils.Some(&models.RiskReport{
		SessionID:           in.Session.ID,
		RiskIndex:           index,
		RiskLevel:           LevelFor(index),
		PasteEvents:         b.PasteEvents,
		TabSwitches:         b.TabSwitches,
		SpeedFlags:          b.SpeedFlags,
		CorrectnessSpike:    b.CorrectnessSpike,
		PatternSimilarity:   b.PatternSimilarity,
		LongestIdenticalRun: b.LongestIdenticalRun,
		AvgAnswerTimeMs:     b.AvgAnswerTimeMs,
		MinAnswerTimeMs:     b.MinAnswerTimeMs,
		Signals:             signals,
	}), nil
}

// LevelFor buckets a risk index.
func LevelFor(index int) models.RiskLevel {
	switch {
	case index <= 20:
		return models.RiskLow
	case index <= 40:
		return models.RiskModerate
	case index <= 70:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// SpeedThreshold is the answer time below which an answer at the given
// difficulty counts as suspiciously fast.
func SpeedThreshold(difficulty float64) float64 {
	switch {
	case difficulty < 4:
		return 4000
	case difficulty < 7:
		return 7000
	default:
		return 10000
	}
}

type tally struct {
	total     int
	signals   []models.RiskSignal
	breakdown models.RiskBreakdown
}

func (t *tally) add(signal models.RiskSignal) {
	t.total += signal.Score
	t.signals = append(t.signals, signal)
}

func countEvents(events []*models.TelemetryEvent, types ...models.TelemetryEventType) int {
	n := 0
	for _, e := range events {
		for _, typ := range types {
			if e.Type == typ {
				n++
				break
			}
		}
	}
	return n
}

func plural(n int, word string) string {
	if n > 1 {
		return word + "s"
	}
	return word
}

func (t *tally) scorePaste(events []*models.TelemetryEvent) {
	n := countEvents(events, models.EventPaste)
	t.breakdown.PasteEvents = n
	if n == 0 {
		return
	}
	t.add(models.RiskSignal{
		Type:        models.SignalPaste,
		Count:       n,
		Score:       min(maxPasteScore, n*12),
		Description: fmt.Sprintf("%d paste %s detected during exam", n, plural(n, "action")),
	})
}

func (t *tally) scoreTabSwitches(events []*models.TelemetryEvent) {
	n := countEvents(events, models.EventTabSwitch, models.EventBlur)
	t.breakdown.TabSwitches = n
	if n < 2 {
		return
	}
	t.add(models.RiskSignal{
		Type:        models.SignalTabSwitch,
		Count:       n,
		Score:       min(maxSwitchScore, n*4),
		Description: fmt.Sprintf("Left exam window %d %s", n, plural(n, "time")),
	})
}

func (t *tally) scoreSpeed(events []*models.TelemetryEvent) {
	var times []float64
	flags := 0
	for _, e := range events {
		if e.Type != models.EventAnswerTime {
			continue
		}
		ms := e.TimeMs()
		times = append(times, ms)
		if ms > 0 && ms < SpeedThreshold(e.Difficulty()) {
			flags++
		}
	}

	t.breakdown.SpeedFlags = flags
	if len(times) > 0 {
		t.breakdown.AvgAnswerTimeMs = int(math.Round(utils.Mean(times)))
		if m, err := utils.Min(times); err == nil {
			t.breakdown.MinAnswerTimeMs = int(m)
		}
	}

	if flags < 2 {
		return
	}
	t.add(models.RiskSignal{
		Type:        models.SignalSpeed,
		Count:       flags,
		Score:       min(maxSpeedScore, flags*5),
		Description: fmt.Sprintf("%d answers submitted suspiciously fast", flags),
	})
}

func (t *tally) scoreSpike(answers []*models.AnsweredQuestion) {
	correct := make([]bool, len(answers))
	for i, a := range answers {
		correct[i] = a.IsCorrect
	}

	spike := CorrectnessSpike(correct)
	t.breakdown.CorrectnessSpike = spike
	if spike < 3 {
		return
	}
	t.add(models.RiskSignal{
		Type:        models.SignalSpike,
		Value:       spike,
		Score:       min(maxSpikeScore, spike*5),
		Description: fmt.Sprintf("%d consecutive correct answers after wrong streak", spike),
	})
}

func (t *tally) scoreSimilarity(mine []string, peers []Fingerprint, session *models.Session) {
	var maxSimilarity float64
	maxRun := 0
	for _, peer := range peers {
		if peer.SessionID == session.ID || peer.StudentID == session.StudentID {
			continue
		}
		maxSimilarity = math.Max(maxSimilarity, JaccardSimilarity(mine, peer.Answers))
		maxRun = max(maxRun, LongestCommonRun(mine, peer.Answers))
	}

	t.breakdown.PatternSimilarity = utils.RoundTo(maxSimilarity, 3)
	t.breakdown.LongestIdenticalRun = maxRun

	if maxSimilarity > similarityThreshold {
		score := int(math.Round((maxSimilarity - similarityThreshold) / similaritySpan * maxSimilarityScore))
		t.add(models.RiskSignal{
			Type:        models.SignalSimilarity,
			Value:       fmt.Sprintf("%.2f", maxSimilarity),
			Score:       min(maxSimilarityScore, score),
			Description: fmt.Sprintf("Answer pattern is %.0f%% similar to another student", maxSimilarity*100),
		})
	}
	if maxRun >= minIdenticalRun {
		t.add(models.RiskSignal{
			Type:        models.SignalIdenticalRun,
			Value:       maxRun,
			Score:       min(maxRunScore, maxRun*2),
			Description: fmt.Sprintf("%d consecutive identical answers with another student", maxRun),
		})
	}
}
