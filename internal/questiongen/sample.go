package questiongen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/llm"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
)

var (
	subjectPattern    = regexp.MustCompile(`for the subject: (.+)\.\n`)
	difficultyPattern = regexp.MustCompile(`difficulty level is ([0-9.]+)`)
)

// SampleQuestion is a deterministic arithmetic question used when no model
// is configured. The correct answer is always the second option.
func SampleQuestion(subject string, difficulty float64) *models.GeneratedQuestion {
	n := int(difficulty*10) + 1
	answer := n + n
	return &models.GeneratedQuestion{
		QuestionText:  fmt.Sprintf("[%s, difficulty %.1f] What is %d + %d?", subject, difficulty, n, n),
		Options:       []string{strconv.Itoa(answer - 1), strconv.Itoa(answer), strconv.Itoa(answer + 1), strconv.Itoa(answer + 2)},
		CorrectAnswer: strconv.Itoa(answer),
		Explanation:   fmt.Sprintf("%d + %d = %d", n, n, answer),
		Topic:         "arithmetic",
	}
}

// SampleResponder answers question prompts with SampleQuestion so a
// llm.MockProvider can stand in for a real model
func SampleResponder(req llm.Request) llm.MockResponse {
	subject, difficulty := "General", 5.0
	if len(req.Messages) > 0 {
		prompt := req.Messages[len(req.Messages)-1].Content
		if m := subjectPattern.FindStringSubmatch(prompt); m != nil {
			subject = m[1]
		}
		if m := difficultyPattern.FindStringSubmatch(prompt); m != nil {
			if d, err := strconv.ParseFloat(m[1], 64); err == nil {
				difficulty = d
			}
		}
	}

	content, err := json.Marshal(SampleQuestion(subject, difficulty))
	return llm.MockResponse{Content: content, Err: err}
}
