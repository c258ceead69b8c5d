package cognitive

import "github.com/SAP-F-2025/adaptive-assessment-service/internal/models"

// Features is the feature vector archetype rules match against.
type Features struct {
	Confidence  int
	Stress      int
	SkipRate    float64
	ChangeRate  float64
	AvgAnswerMs int
}

// Rule assigns Archetype when Match holds. Rules are evaluated in order and
// the first match wins.
type Rule struct {
	Archetype models.Archetype
	Match     func(f Features) bool
}

var (
	StrategicSkipper = models.Archetype{
		ID:          models.ArchetypeStrategicSkipper,
		Label:       "Strategic Skipper",
		Emoji:       "🔀",
		Color:       "#f59e0b",
		Description: "Prefers to survey all questions before committing, then returns to unanswered ones. Shows planning ability but may indicate topic uncertainty.",
		Traits:      []string{"Surveys before answering", "Non-linear approach", "Time-management aware"},
	}
	AnxiousUncertain = models.Archetype{
		ID:          models.ArchetypeAnxiousUncertain,
		Label:       "Anxious & Uncertain",
		Emoji:       "😰",
		Color:       "#dc2626",
		Description: "High stress combined with low confidence suggests significant exam anxiety. Frequent second-guessing and pauses indicate cognitive overload.",
		Traits:      []string{"Frequent answer changes", "Long pauses under pressure", "Possible exam anxiety"},
	}
	ImpulsiveRusher = models.Archetype{
		ID:          models.ArchetypeImpulsiveRusher,
		Label:       "Impulsive Rusher",
		Emoji:       "⚡",
		Color:       "#8b5cf6",
		Description: "Answers very quickly with few changes. May reflect over-confidence, guessing, or poor engagement with question depth.",
		Traits:      []string{"Ultra-fast responses", "Minimal deliberation", "Risk-taking behaviour"},
	}
	DecisiveConfident = models.Archetype{
		ID:          models.ArchetypeDecisiveConfident,
		Label:       "Decisive & Confident",
		Emoji:       "🎯",
		Color:       "#10b981",
		Description: "High confidence with low stress. Steady answer times and few changes indicate strong topic mastery and calm test-taking disposition.",
		Traits:      []string{"Strong topic mastery", "Consistent pacing", "Minimal second-guessing"},
	}
	CarefulMethodical = models.Archetype{
		ID:          models.ArchetypeCarefulMethodical,
		Label:       "Careful & Methodical",
		Emoji:       "🔍",
		Color:       "#3b82f6",
		Description: "Regularly revisits and revises answers but ultimately converges on correct thinking. Reflects thorough checking behaviour common in high-performers.",
		Traits:      []string{"Thorough double-checking", "Self-correcting mindset", "Deliberate pacing"},
	}
	BalancedLearner = models.Archetype{
		ID:          models.ArchetypeBalancedLearner,
		Label:       "Balanced Learner",
		Emoji:       "⚖️",
		Color:       "#6b7280",
		Description: "Shows a balanced mix of confidence and caution across the exam. No extreme behavioural signals detected.",
		Traits:      []string{"Moderate pacing", "Moderate deliberation", "Adaptable approach"},
	}
)

// DefaultRules is the archetype table in priority order.
var DefaultRules = []Rule{
	{StrategicSkipper, func(f Features) bool { return f.SkipRate >= 0.30 }},
	{AnxiousUncertain, func(f Features) bool { return f.Stress >= 60 && f.Confidence <= 50 }},
	{ImpulsiveRusher, func(f Features) bool {
		return f.AvgAnswerMs > 0 && f.AvgAnswerMs < fastAnswerMs && f.ChangeRate < 0.15
	}},
	{DecisiveConfident, func(f Features) bool { return f.Confidence >= 70 && f.Stress <= 30 }},
	{CarefulMethodical, func(f Features) bool { return f.Confidence >= 55 && f.ChangeRate >= 0.20 }},
}

// Classify returns the first matching archetype, or BalancedLearner.
func Classify(rules []Rule, f Features) models.Archetype {
	for _, rule := range rules {
		if rule.Match(f) {
			return rule.Archetype
		}
	}
	return BalancedLearner
}
