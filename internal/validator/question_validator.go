package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
)

// QuestionOptionCount is the number of options every generated question carries.
const QuestionOptionCount = 4

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateGenerated checks a question produced by the generation collaborator.
func (v *QuestionValidator) ValidateGenerated(q *models.GeneratedQuestion) error {
	if q == nil {
		return fmt.Errorf("question cannot be nil")
	}

	var errs ValidationErrors

	if strings.TrimSpace(q.QuestionText) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule("question_text", "is required", "required", nil))
	}

	if len(q.Options) != QuestionOptionCount {
		errs = append(errs, *errors.NewValidationErrorWithRule("options",
			fmt.Sprintf("must contain exactly %d options", QuestionOptionCount), "len", len(q.Options)))
	} else if !distinctNonEmpty(q.Options) {
		errs = append(errs, *errors.NewValidationErrorWithRule("options", "must contain distinct, non-empty options", "option_list", q.Options))
	}

	if !v.ContainsOption(q.Options, q.CorrectAnswer) {
		errs = append(errs, *errors.NewValidationErrorWithRule("correct_answer", "must match one of the options", "correct_option", q.CorrectAnswer))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ContainsOption reports whether answer is one of options, ignoring surrounding whitespace.
func (v *QuestionValidator) ContainsOption(options []string, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	for _, option := range options {
		if strings.TrimSpace(option) == answer {
			return true
		}
	}
	return false
}

func distinctNonEmpty(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option == "" {
			return false
		}
		if _, dup := seen[option]; dup {
			return false
		}
		seen[option] = struct{}{}
	}
	return true
}
