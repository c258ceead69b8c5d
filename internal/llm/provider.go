// Package llm abstracts the language model used to generate questions.
// Providers return JSON that has already been checked against the
// requested schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a prompt
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single generation call
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the provider for JSON matching it
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema definition
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response carries the generated JSON and token usage
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}
