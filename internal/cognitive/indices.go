package cognitive

import (
	"math"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

const (
	stressVarianceWeight   = 0.40
	stressPauseWeight      = 0.30
	stressSkipWeight       = 0.20
	stressEscalationWeight = 0.10

	maxCoefficientOfVariation = 1.5
	maxPausesPerQuestion      = 2.0
	escalationRatio           = 0.6
	minEscalationSamples      = 4
)

// confidenceIndex starts at 100 and moves per question with changes, skips,
// pauses and the speed of each answer.
func confidenceIndex(r *replay) int {
	score := 100.0
	for _, q := range r.questions {
		score -= float64(min(q.changes*8, 32))
		score -= float64(min(q.skips*15, 30))
		score -= float64(min(q.pauses*5, 15))

		for _, t := range q.times {
			if t > slowAnswerMs {
				score -= 10
			} else if t > 0 && t < fastAnswerMs {
				score += 5
			}
		}
	}
	return int(utils.Clamp(math.Round(score), 0, 100))
}

// stressLevel blends answer-time variance, pause rate, skip rate and late
// speed-up into a 0-100 score.
func stressLevel(r *replay) int {
	questions := float64(r.questionCount())
	_, skips := r.totals()

	mean := utils.Mean(r.answerTimes)
	if mean == 0 {
		mean = 1
	}
	variance := utils.Clamp(utils.SampleStdDev(r.answerTimes)/mean/maxCoefficientOfVariation, 0, 1)
	pause := utils.Clamp(float64(len(r.pauses))/questions/maxPausesPerQuestion, 0, 1)
	skip := utils.Clamp(float64(skips)/questions, 0, 1)
	escalation := escalationFactor(r.answerTimes)

	raw := (stressVarianceWeight*variance +
		stressPauseWeight*pause +
		stressSkipWeight*skip +
		stressEscalationWeight*escalation) * 100

	return int(utils.Clamp(math.Round(raw), 0, 100))
}

// escalationFactor measures how much faster the second half of the answers
// came in compared to the first half.
func escalationFactor(times []float64) float64 {
	if len(times) < minEscalationSamples {
		return 0
	}
	half := len(times) / 2
	first := utils.Mean(times[:half])
	second := utils.Mean(times[half:])
	if first <= 0 || second >= first*escalationRatio {
		return 0
	}
	return utils.Clamp((first-second)/first, 0, 1)
}

func localConfidence(q *questionStats) int {
	score := 100 - q.changes*8 - q.skips*15 - q.pauses*5
	if q.hasSlowAnswer() {
		score -= 10
	}
	if q.hasFastAnswer() {
		score += 5
	}
	return min(100, max(0, score))
}
