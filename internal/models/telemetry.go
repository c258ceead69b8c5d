package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type TelemetryEventType string

const (
	EventPaste        TelemetryEventType = "paste"
	EventTabSwitch    TelemetryEventType = "tab_switch"
	EventBlur         TelemetryEventType = "blur"
	EventAnswerTime   TelemetryEventType = "answer_time"
	EventAnswerChange TelemetryEventType = "answer_change"
	EventSkip         TelemetryEventType = "skip"
	EventReturnVisit  TelemetryEventType = "return_visit"
)

// DefaultEventDifficulty is assumed for answer_time events that carry no difficulty.
const DefaultEventDifficulty = 5.0

// TelemetryEvent is one raw interaction signal. Events are append-only.
type TelemetryEvent struct {
	ID             string             `json:"id" gorm:"primaryKey;size:36"`
	SessionID      string             `json:"session_id" gorm:"not null;size:36;index:idx_telemetry_session_time"`
	Type           TelemetryEventType `json:"type" gorm:"not null;size:50;index"`
	QuestionNumber *int               `json:"question_number"`
	Value          datatypes.JSON     `json:"value"`
	RecordedAt     time.Time          `json:"recorded_at" gorm:"not null;index:idx_telemetry_session_time"`
}

func (TelemetryEvent) TableName() string {
	return "telemetry_events"
}

// eventValue is the subset of the payload analytics reads.
type eventValue struct {
	TimeMs     *float64 `json:"time_ms"`
	Difficulty *float64 `json:"difficulty"`
}

func (e *TelemetryEvent) decodeValue() eventValue {
	var v eventValue
	if len(e.Value) > 0 {
		_ = json.Unmarshal(e.Value, &v)
	}
	return v
}

// TimeMs returns value.time_ms, or 0 when absent.
func (e *TelemetryEvent) TimeMs() float64 {
	if v := e.decodeValue(); v.TimeMs != nil {
		return *v.TimeMs
	}
	return 0
}

// Difficulty returns value.difficulty, or DefaultEventDifficulty when absent or zero.
func (e *TelemetryEvent) Difficulty() float64 {
	if v := e.decodeValue(); v.Difficulty != nil && *v.Difficulty != 0 {
		return *v.Difficulty
	}
	return DefaultEventDifficulty
}

// Question returns the question number, mapping a missing one to 0.
func (e *TelemetryEvent) Question() int {
	if e.QuestionNumber == nil {
		return 0
	}
	return *e.QuestionNumber
}
