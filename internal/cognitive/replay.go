package cognitive

import (
	"sort"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
)

const (
	// PauseThreshold is the idle gap between consecutive events that counts as a pause.
	PauseThreshold = 8 * time.Second

	fastAnswerMs = 4000.0
	slowAnswerMs = 60000.0
)

// questionStats accumulates the replayed events of one question.
type questionStats struct {
	number       int
	times        []float64
	changes      int
	skips        int
	pauses       int
	returnVisits int
}

func (q *questionStats) hasSlowAnswer() bool {
	for _, t := range q.times {
		if t > slowAnswerMs {
			return true
		}
	}
	return false
}

func (q *questionStats) hasFastAnswer() bool {
	for _, t := range q.times {
		if t > 0 && t < fastAnswerMs {
			return true
		}
	}
	return false
}

// replay is the result of walking a session's telemetry in time order.
type replay struct {
	questions   []*questionStats // ascending question number
	pauses      []time.Duration
	answerTimes []float64
}

func (r *replay) questionCount() int {
	return max(len(r.questions), 1)
}

func (r *replay) totals() (changes, skips int) {
	for _, q := range r.questions {
		changes += q.changes
		skips += q.skips
	}
	return changes, skips
}

// replayEvents groups events by question and detects pauses. A pause is
// charged to the question of the event that ends it.
func replayEvents(events []*models.TelemetryEvent) *replay {
	ordered := make([]*models.TelemetryEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	byNumber := make(map[int]*questionStats)
	r := &replay{}

	var last time.Time
	for i, e := range ordered {
		n := e.Question()
		q, ok := byNumber[n]
		if !ok {
			q = &questionStats{number: n}
			byNumber[n] = q
		}

		if i > 0 {
			if gap := e.RecordedAt.Sub(last); gap > PauseThreshold {
				r.pauses = append(r.pauses, gap)
				q.pauses++
			}
		}
		last = e.RecordedAt

		switch e.Type {
		case models.EventAnswerTime:
			ms := e.TimeMs()
			q.times = append(q.times, ms)
			r.answerTimes = append(r.answerTimes, ms)
		case models.EventAnswerChange:
			q.changes++
		case models.EventSkip:
			q.skips++
		case models.EventReturnVisit:
			q.returnVisits++
		}
	}

	for _, q := range byNumber {
		r.questions = append(r.questions, q)
	}
	sort.Slice(r.questions, func(i, j int) bool {
		return r.questions[i].number < r.questions[j].number
	})
	return r
}
