package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AnsweredQuestion is one graded response within a session. Rows are
// immutable and numbered 1..N without gaps.
type AnsweredQuestion struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID          string         `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_answers_session_number"`
	QuestionNumber     int            `json:"question_number" gorm:"not null;uniqueIndex:idx_answers_session_number"`
	QuestionText       string         `json:"question_text" gorm:"type:text;not null"`
	Options            datatypes.JSON `json:"options"`
	CorrectAnswer      string         `json:"correct_answer" gorm:"type:text;not null"`
	StudentAnswer      string         `json:"student_answer" gorm:"type:text"`
	IsCorrect          bool           `json:"is_correct" gorm:"not null"`
	QuestionDifficulty float64        `json:"question_difficulty" gorm:"not null"`
	SkillBefore        float64        `json:"skill_before" gorm:"not null"`
	SkillAfter         float64        `json:"skill_after" gorm:"not null"`
	Topic              string         `json:"topic" gorm:"size:255"`
	Explanation        string         `json:"explanation" gorm:"type:text"`
	CreatedAt          time.Time      `json:"created_at"`
}

func (AnsweredQuestion) TableName() string {
	return "adaptive_answers"
}

// OptionList decodes the stored option array. Malformed rows decode to nil.
func (a *AnsweredQuestion) OptionList() []string {
	var options []string
	if len(a.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.Options, &options); err != nil {
		return nil
	}
	return options
}

// AnswerSequence extracts the student answers in the given order.
func AnswerSequence(answers []*AnsweredQuestion) []string {
	seq := make([]string, len(answers))
	for i, a := range answers {
		seq[i] = a.StudentAnswer
	}
	return seq
}

// GeneratedQuestion is the question object produced by the generation collaborator.
type GeneratedQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
}
