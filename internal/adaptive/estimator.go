// Package adaptive holds the skill model that drives question difficulty:
// an ELO-style estimator and a jittered difficulty selector.
package adaptive

import "math"

const (
	MinSkill = 1.0
	MaxSkill = 10.0

	// InitialSkill is the estimate every new session starts from.
	InitialSkill = 5.0

	// DefaultLearningRate is the K factor of the update rule.
	DefaultLearningRate = 2.0
)

// Estimator updates a bounded skill estimate after each graded response.
type Estimator struct {
	learningRate float64
}

// NewEstimator returns an estimator using learning rate k. A non-positive k
// falls back to DefaultLearningRate.
func NewEstimator(k float64) *Estimator {
	if k <= 0 {
		k = DefaultLearningRate
	}
	return &Estimator{learningRate: k}
}

// ExpectedProbability is the logistic chance that a student at skill answers
// a question at difficulty correctly.
func ExpectedProbability(skill, difficulty float64) float64 {
	return 1 / (1 + math.Exp(-(skill - difficulty)))
}

// Update returns the skill after grading one answer.
func (e *Estimator) Update(skill, difficulty float64, isCorrect bool) float64 {
	expected := ExpectedProbability(skill, difficulty)
	actual := 0.0
	if isCorrect {
		actual = 1.0
	}
	return clampSkill(skill + e.learningRate*(actual-expected))
}

// LearningRate returns the K factor in use.
func (e *Estimator) LearningRate() float64 {
	return e.learningRate
}

func clampSkill(v float64) float64 {
	return math.Max(MinSkill, math.Min(MaxSkill, v))
}
