// Package questiongen produces one multiple-choice question at a target
// difficulty through an llm.Provider.
package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/llm"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/validator"
)

// ErrGeneration wraps every failure to obtain a usable question
var ErrGeneration = errors.New("question generation failed")

const (
	purpose   = "adaptive-question"
	maxTokens = 1024

	systemPrompt = "You are an expert educator. Generate exactly ONE multiple-choice question in JSON format."
)

// QuestionSchema is the JSON shape requested from the model
var QuestionSchema = &llm.Schema{
	Name:        "adaptive-question",
	Description: "One multiple-choice question with four options",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text":  map[string]any{"type": "string", "minLength": 1},
			"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
			"correct_answer": map[string]any{"type": "string", "minLength": 1},
			"explanation":    map[string]any{"type": "string"},
			"topic":          map[string]any{"type": "string"},
		},
		"required": []string{"question_text", "options", "correct_answer", "explanation", "topic"},
	},
}

// QuestionGenerator is what the session service depends on
type QuestionGenerator interface {
	Generate(ctx context.Context, subject string, difficulty float64) (*models.GeneratedQuestion, error)
}

type Generator struct {
	provider  llm.Provider
	validator *validator.QuestionValidator
	timeout   time.Duration
	logger    *slog.Logger
}

func NewGenerator(provider llm.Provider, timeout time.Duration, logger *slog.Logger) *Generator {
	return &Generator{
		provider:  provider,
		validator: validator.NewQuestionValidator(),
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate asks for one question for subject at difficulty (1..10)
func (g *Generator) Generate(ctx context.Context, subject string, difficulty float64) (*models.GeneratedQuestion, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := llm.UserPrompt(systemPrompt, Prompt(subject, difficulty))
	req.Schema = QuestionSchema
	req.MaxTokens = maxTokens
	req.Temperature = 0.7

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, purpose), req)
	if err != nil {
		g.logger.Error("Adaptive question generation failed", "subject", subject, "difficulty", difficulty, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var question models.GeneratedQuestion
	if err := json.Unmarshal(resp.Content, &question); err != nil {
		return nil, fmt.Errorf("%w: failed to decode question: %w", ErrGeneration, err)
	}
	normalize(&question)

	if err := g.validator.ValidateGenerated(&question); err != nil {
		g.logger.Warn("Generated question rejected", "subject", subject, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return &question, nil
}

// Prompt is the user message for one adaptive question
func Prompt(subject string, difficulty float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate ONE %s question for the subject: %s.\n", adaptive.DifficultyLabel(difficulty), subject)
	fmt.Fprintf(&b, "The difficulty level is %.1f on a scale of 1-10.\n", difficulty)
	b.WriteString("Return a JSON object with these exact keys:\n")
	b.WriteString("- question_text (string)\n")
	b.WriteString("- options (array of exactly 4 strings)\n")
	b.WriteString("- correct_answer (string, must exactly match one option)\n")
	b.WriteString("- explanation (string, why the answer is correct)\n")
	b.WriteString("- topic (string, the specific subtopic this question covers)")
	return b.String()
}

func normalize(q *models.GeneratedQuestion) {
	q.QuestionText = strings.TrimSpace(q.QuestionText)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.Topic = strings.TrimSpace(q.Topic)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
}
