package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(provider llm.Provider) *Generator {
	return NewGenerator(provider, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerator_Generate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"question_text": "  What is the SI unit of force?  ",
		"options": ["Joule", " Newton ", "Pascal", "Watt"],
		"correct_answer": "Newton",
		"explanation": "Force is measured in newtons.",
		"topic": "Mechanics"
	}`)})

	q, err := newTestGenerator(mock).Generate(context.Background(), "Physics", 6.3)
	require.NoError(t, err)

	assert.Equal(t, "What is the SI unit of force?", q.QuestionText)
	assert.Equal(t, []string{"Joule", "Newton", "Pascal", "Watt"}, q.Options)
	assert.Equal(t, "Newton", q.CorrectAnswer)

	require.Equal(t, 1, mock.CallCount())
	call := mock.Calls[0]
	assert.Equal(t, systemPrompt, call.System)
	assert.Same(t, QuestionSchema, call.Schema)
	assert.Contains(t, call.Messages[0].Content, "hard (analysis and synthesis) question for the subject: Physics.")
	assert.Contains(t, call.Messages[0].Content, "The difficulty level is 6.3 on a scale of 1-10.")
}

func TestGenerator_RejectsInvalidQuestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"answer not an option", `{"question_text":"Q","options":["a","b","c","d"],"correct_answer":"e","explanation":"","topic":""}`},
		{"duplicate options", `{"question_text":"Q","options":["a","a","c","d"],"correct_answer":"a","explanation":"","topic":""}`},
		{"wrong option count", `{"question_text":"Q","options":["a","b","c"],"correct_answer":"a","explanation":"","topic":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(tt.content)})
			_, err := newTestGenerator(mock).Generate(context.Background(), "Math", 3)
			assert.ErrorIs(t, err, ErrGeneration)
		})
	}
}

func TestGenerator_ProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})

	_, err := newTestGenerator(mock).Generate(context.Background(), "Math", 3)
	assert.ErrorIs(t, err, ErrGeneration)

	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestSampleResponder(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Responder = SampleResponder

	q, err := newTestGenerator(mock).Generate(context.Background(), "Chemistry", 4.5)
	require.NoError(t, err)

	assert.Contains(t, q.QuestionText, "[Chemistry, difficulty 4.5]")
	assert.Equal(t, q.Options[1], q.CorrectAnswer)
	assert.Equal(t, SampleQuestion("Chemistry", 4.5), q)
}
