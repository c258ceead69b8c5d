package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type RiskSignalType string

const (
	SignalPaste        RiskSignalType = "paste"
	SignalTabSwitch    RiskSignalType = "tab_switch"
	SignalSpeed        RiskSignalType = "speed"
	SignalSpike        RiskSignalType = "spike"
	SignalSimilarity   RiskSignalType = "similarity"
	SignalIdenticalRun RiskSignalType = "identical_run"
)

// RiskSignal is one triggered anti-cheat signal. Count-style signals fill
// Count; magnitude-style signals fill Value.
type RiskSignal struct {
	Type        RiskSignalType `json:"type"`
	Count       int            `json:"count,omitempty"`
	Value       interface{}    `json:"value,omitempty"`
	Score       int            `json:"score"`
	Description string         `json:"desc"`
}

// RiskBreakdown holds the raw counters behind a risk report.
type RiskBreakdown struct {
	PasteEvents         int     `json:"paste_events"`
	TabSwitches         int     `json:"tab_switches"`
	SpeedFlags          int     `json:"speed_flags"`
	AvgAnswerTimeMs     int     `json:"avg_answer_time_ms"`
	MinAnswerTimeMs     int     `json:"min_answer_time_ms"`
	CorrectnessSpike    int     `json:"correctness_spike"`
	PatternSimilarity   float64 `json:"pattern_similarity"`
	LongestIdenticalRun int     `json:"longest_identical_run"`
}

// RiskReport is the anti-cheat result for one completed session.
type RiskReport struct {
	SessionID string    `json:"session_id" gorm:"primaryKey;size:36"`
	RiskIndex int       `json:"risk_index" gorm:"not null"`
	RiskLevel RiskLevel `json:"risk_level" gorm:"not null;size:20;index"`

	PasteEvents         int     `json:"paste_events"`
	TabSwitches         int     `json:"tab_switches"`
	SpeedFlags          int     `json:"speed_flags"`
	CorrectnessSpike    int     `json:"correctness_spike"`
	PatternSimilarity   float64 `json:"pattern_similarity"`
	LongestIdenticalRun int     `json:"longest_identical_run"`
	AvgAnswerTimeMs     int     `json:"avg_answer_time_ms"`
	MinAnswerTimeMs     int     `json:"min_answer_time_ms"`

	Signals    datatypes.JSON `json:"signals"`
	ComputedAt time.Time      `json:"computed_at"`
}

func (RiskReport) TableName() string {
	return "risk_reports"
}

// SignalList decodes the stored signal array.
func (r *RiskReport) SignalList() []RiskSignal {
	var signals []RiskSignal
	if len(r.Signals) == 0 {
		return []RiskSignal{}
	}
	if err := json.Unmarshal(r.Signals, &signals); err != nil {
		return []RiskSignal{}
	}
	return signals
}

// Breakdown returns the counter columns as one value.
func (r *RiskReport) Breakdown() RiskBreakdown {
	return RiskBreakdown{
		PasteEvents:         r.PasteEvents,
		TabSwitches:         r.TabSwitches,
		SpeedFlags:          r.SpeedFlags,
		AvgAnswerTimeMs:     r.AvgAnswerTimeMs,
		MinAnswerTimeMs:     r.MinAnswerTimeMs,
		CorrectnessSpike:    r.CorrectnessSpike,
		PatternSimilarity:   r.PatternSimilarity,
		LongestIdenticalRun: r.LongestIdenticalRun,
	}
}

// IsFlagged reports whether the level warrants review.
func (r *RiskReport) IsFlagged() bool {
	return r.RiskLevel == RiskHigh || r.RiskLevel == RiskCritical
}
