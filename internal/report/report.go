// Package report shapes estimator, risk and profile results into API responses.
package report

import (
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
)

// StartResult is returned when a session begins.
type StartResult struct {
	SessionID      string                    `json:"sessionId"`
	QuestionNumber int                       `json:"questionNumber"`
	TotalQuestions int                       `json:"totalQuestions"`
	CurrentSkill   float64                   `json:"currentSkill"`
	Difficulty     float64                   `json:"difficulty"`
	Question       *models.GeneratedQuestion `json:"question"`
}

// NextQuestionResult is returned after a non-final answer.
type NextQuestionResult struct {
	Done           bool                      `json:"done"`
	IsCorrect      bool                      `json:"isCorrect"`
	SkillBefore    float64                   `json:"skillBefore"`
	SkillAfter     float64                   `json:"skillAfter"`
	Level          adaptive.Level            `json:"level"`
	QuestionNumber int                       `json:"questionNumber"`
	TotalQuestions int                       `json:"totalQuestions"`
	Difficulty     float64                   `json:"difficulty"`
	Question       *models.GeneratedQuestion `json:"question"`
}

// CompletionResult is returned after the final answer.
type CompletionResult struct {
	Done             bool               `json:"done"`
	FinalSkill       float64            `json:"finalSkill"`
	Level            adaptive.Level     `json:"level"`
	Score            int                `json:"score"`
	TotalQuestions   int                `json:"totalQuestions"`
	Answers          []AnswerView       `json:"answers"`
	SkillProgression []ProgressionPoint `json:"skillProgression"`
	AntiCheat        *AntiCheatSummary  `json:"antiCheat"`
}

// AnswerView is an answered question with its options decoded.
type AnswerView struct {
	QuestionNumber     int       `json:"questionNumber"`
	QuestionText       string    `json:"questionText"`
	Options            []string  `json:"options"`
	CorrectAnswer      string    `json:"correctAnswer"`
	StudentAnswer      string    `json:"studentAnswer"`
	IsCorrect          bool      `json:"isCorrect"`
	QuestionDifficulty float64   `json:"questionDifficulty"`
	SkillBefore        float64   `json:"skillBefore"`
	SkillAfter         float64   `json:"skillAfter"`
	Topic              string    `json:"topic"`
	Explanation        string    `json:"explanation"`
	CreatedAt          time.Time `json:"createdAt"`
}

type ProgressionPoint struct {
	Q          int     `json:"q"`
	Skill      float64 `json:"skill"`
	Difficulty float64 `json:"difficulty"`
	Correct    bool    `json:"correct"`
}

type AntiCheatSummary struct {
	RiskIndex int                 `json:"riskIndex"`
	RiskLevel models.RiskLevel    `json:"riskLevel"`
	Signals   []models.RiskSignal `json:"signals"`
}

// HistoryEntry is a past session with its level band.
type HistoryEntry struct {
	*models.Session
	Level adaptive.Level `json:"level"`
}

// RiskReportView is the stored risk report plus its decoded details.
type RiskReportView struct {
	*models.RiskReport
	Details RiskDetails `json:"details"`
}

type RiskDetails struct {
	Signals   []models.RiskSignal  `json:"signals"`
	Breakdown models.RiskBreakdown `json:"breakdown"`
}

// ProfileView is the stored cognitive profile in response form.
type ProfileView struct {
	SessionID         string                     `json:"sessionId"`
	ConfidenceIndex   int                        `json:"confidenceIndex"`
	StressLevel       int                        `json:"stressLevel"`
	Profile           models.Archetype           `json:"profile"`
	Stats             models.CognitiveStats      `json:"stats"`
	QuestionBreakdown []models.QuestionBreakdown `json:"questionBreakdown"`
	ComputedAt        time.Time                  `json:"computedAt"`
}

func Start(session *models.Session, difficulty float64, question *models.GeneratedQuestion) *StartResult {
	return &StartResult{
		SessionID:      session.ID,
		QuestionNumber: 1,
		TotalQuestions: session.TotalQuestions,
		CurrentSkill:   session.CurrentSkill,
		Difficulty:     difficulty,
		Question:       question,
	}
}

func NextQuestion(answer *models.AnsweredQuestion, session *models.Session, difficulty float64, question *models.GeneratedQuestion) *NextQuestionResult {
	return &NextQuestionResult{
		Done:           false,
		IsCorrect:      answer.IsCorrect,
		SkillBefore:    answer.SkillBefore,
		SkillAfter:     answer.SkillAfter,
		Level:          adaptive.LevelFor(answer.SkillAfter),
		QuestionNumber: answer.QuestionNumber + 1,
		TotalQuestions: session.TotalQuestions,
		Difficulty:     difficulty,
		Question:       question,
	}
}

// Completion builds the final result. answers must be ordered by question
// number; an empty risk yields a null antiCheat block.
func Completion(session *models.Session, answers []*models.AnsweredQuestion, risk utils.Optional[*models.RiskReport]) *CompletionResult {
	result := &CompletionResult{
		Done:             true,
		FinalSkill:       session.CurrentSkill,
		Level:            adaptive.LevelFor(session.CurrentSkill),
		TotalQuestions:   session.TotalQuestions,
		Answers:          make([]AnswerView, 0, len(answers)),
		SkillProgression: make([]ProgressionPoint, 0, len(answers)),
	}

	for _, a := range answers {
		if a.IsCorrect {
			result.Score++
		}
		result.Answers = append(result.Answers, answerView(a))
		result.SkillProgression = append(result.SkillProgression, ProgressionPoint{
			Q:          a.QuestionNumber,
			Skill:      a.SkillAfter,
			Difficulty: a.QuestionDifficulty,
			Correct:    a.IsCorrect,
		})
	}

	if r, ok := risk.Get(); ok {
		result.AntiCheat = &AntiCheatSummary{
			RiskIndex: r.RiskIndex,
			RiskLevel: r.RiskLevel,
			Signals:   r.SignalList(),
		}
	}
	return result
}

func answerView(a *models.AnsweredQuestion) AnswerView {
	options := a.OptionList()
	if options == nil {
		options = []string{}
	}
	return AnswerView{
		QuestionNumber:     a.QuestionNumber,
		QuestionText:       a.QuestionText,
		Options:            options,
		CorrectAnswer:      a.CorrectAnswer,
		StudentAnswer:      a.StudentAnswer,
		IsCorrect:          a.IsCorrect,
		QuestionDifficulty: a.QuestionDifficulty,
		SkillBefore:        a.SkillBefore,
		SkillAfter:         a.SkillAfter,
		Topic:              a.Topic,
		Explanation:        a.Explanation,
		CreatedAt:          a.CreatedAt,
	}
}

func History(sessions []*models.Session) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, HistoryEntry{Session: s, Level: adaptive.LevelFor(s.CurrentSkill)})
	}
	return entries
}

func RiskReport(r *models.RiskReport) *RiskReportView {
	return &RiskReportView{
		RiskReport: r,
		Details: RiskDetails{
			Signals:   r.SignalList(),
			Breakdown: r.Breakdown(),
		},
	}
}

func Profile(p *models.CognitiveProfile) *ProfileView {
	return &ProfileView{
		SessionID:         p.SessionID,
		ConfidenceIndex:   p.ConfidenceIndex,
		StressLevel:       p.StressLevel,
		Profile:           p.Archetype(),
		Stats:             p.StatsValue(),
		QuestionBreakdown: p.BreakdownValue(),
		ComputedAt:        p.ComputedAt,
	}
}
