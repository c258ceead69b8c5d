package adaptive

// Level is the display band for a skill estimate.
type Level struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

var levelBands = []struct {
	upper float64
	level Level
}{
	{2, Level{Label: "Beginner", Emoji: "🌱", Color: "#6b7280"}},
	{4, Level{Label: "Elementary", Emoji: "📚", Color: "#3b82f6"}},
	{6, Level{Label: "Intermediate", Emoji: "⚡", Color: "#8b5cf6"}},
	{8, Level{Label: "Advanced", Emoji: "🔥", Color: "#f59e0b"}},
}

var expertLevel = Level{Label: "Expert", Emoji: "🏆", Color: "#10b981"}

// LevelFor maps a skill estimate to its level band.
func LevelFor(skill float64) Level {
	for _, band := range levelBands {
		if skill < band.upper {
			return band.level
		}
	}
	return expertLevel
}

// DifficultyLabel describes a difficulty in words for question prompts.
func DifficultyLabel(difficulty float64) string {
	switch {
	case difficulty < 2:
		return "very easy (basic recall)"
	case difficulty < 4:
		return "easy (foundational understanding)"
	case difficulty < 6:
		return "medium (application of concepts)"
	case difficulty < 8:
		return "hard (analysis and synthesis)"
	default:
		return "very hard (expert-level reasoning)"
	}
}
