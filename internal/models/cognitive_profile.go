package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ArchetypeID string

const (
	ArchetypeStrategicSkipper  ArchetypeID = "STRATEGIC_SKIPPER"
	ArchetypeAnxiousUncertain  ArchetypeID = "ANXIOUS_UNCERTAIN"
	ArchetypeImpulsiveRusher   ArchetypeID = "IMPULSIVE_RUSHER"
	ArchetypeDecisiveConfident ArchetypeID = "DECISIVE_CONFIDENT"
	ArchetypeCarefulMethodical ArchetypeID = "CAREFUL_METHODICAL"
	ArchetypeBalancedLearner   ArchetypeID = "BALANCED_LEARNER"
)

// Archetype is a fixed behavioral classification.
type Archetype struct {
	ID          ArchetypeID `json:"id"`
	Label       string      `json:"label"`
	Emoji       string      `json:"emoji"`
	Color       string      `json:"color"`
	Description string      `json:"description"`
	Traits      []string    `json:"traits"`
}

// CognitiveStats are session-level aggregates behind a profile.
type CognitiveStats struct {
	TotalQuestions     int     `json:"totalQuestions"`
	AvgAnswerMs        int     `json:"avgAnswerMs"`
	TotalAnswerChanges int     `json:"totalAnswerChanges"`
	TotalSkips         int     `json:"totalSkips"`
	TotalPauses        int     `json:"totalPauses"`
	ChangeRate         float64 `json:"changeRate"`
	SkipRate           float64 `json:"skipRate"`
	AnswerTimeStdDevMs int     `json:"answerTimeStdDevMs"`
}

// QuestionBreakdown is the per-question slice of a profile.
type QuestionBreakdown struct {
	QuestionNumber  int  `json:"questionNumber"`
	AvgAnswerMs     *int `json:"avgAnswerMs"`
	AnswerChanges   int  `json:"answerChanges"`
	Skipped         bool `json:"skipped"`
	PauseCount      int  `json:"pauseCount"`
	ReturnVisits    int  `json:"returnVisits"`
	LocalConfidence int  `json:"localConfidence"`
}

// CognitiveProfile is the behavioral profile of one completed session.
type CognitiveProfile struct {
	SessionID       string         `json:"session_id" gorm:"primaryKey;size:36"`
	ConfidenceIndex int            `json:"confidence_index" gorm:"not null"`
	StressLevel     int            `json:"stress_level" gorm:"not null"`
	ArchetypeID     ArchetypeID    `json:"archetype_id" gorm:"not null;size:40;index"`
	Label           string         `json:"label" gorm:"size:100"`
	Emoji           string         `json:"emoji" gorm:"size:16"`
	Color           string         `json:"color" gorm:"size:16"`
	Description     string         `json:"description" gorm:"type:text"`
	Traits          datatypes.JSON `json:"traits"`
	Stats           datatypes.JSON `json:"stats"`
	Breakdown       datatypes.JSON `json:"breakdown"`
	ComputedAt      time.Time      `json:"computed_at"`
}

func (CognitiveProfile) TableName() string {
	return "cognitive_profiles"
}

func (p *CognitiveProfile) Archetype() Archetype {
	var traits []string
	_ = json.Unmarshal(p.Traits, &traits)
	return Archetype{
		ID:          p.ArchetypeID,
		Label:       p.Label,
		Emoji:       p.Emoji,
		Color:       p.Color,
		Description: p.Description,
		Traits:      traits,
	}
}

func (p *CognitiveProfile) StatsValue() CognitiveStats {
	var stats CognitiveStats
	_ = json.Unmarshal(p.Stats, &stats)
	return stats
}

func (p *CognitiveProfile) BreakdownValue() []QuestionBreakdown {
	breakdown := []QuestionBreakdown{}
	_ = json.Unmarshal(p.Breakdown, &breakdown)
	return breakdown
}
