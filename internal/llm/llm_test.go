package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemSchema() *Schema {
	return &Schema{
		Name: "test-item",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string", "minLength": 1},
				"choices": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 2},
			},
			"required": []string{"name", "choices"},
		},
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"x","choices":["a","b"]}`, false},
		{"missing field", `{"name":"x"}`, true},
		{"too few items", `{"name":"x","choices":["a"]}`, true},
		{"not json", `name: x`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(itemSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invalid *ErrInvalidResponse
			assert.ErrorAs(t, err, &invalid)
		})
	}

	assert.NoError(t, validateResponse(nil, json.RawMessage(`anything`)))
}

func TestRetry(t *testing.T) {
	t.Run("transient then success", func(t *testing.T) {
		mock := NewMockProvider(
			MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
			MockResponse{Content: json.RawMessage(`{"ok":true}`)},
		)
		resp, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(resp.Content))
		assert.Equal(t, 2, mock.CallCount())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		mock := NewMockProvider(
			MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
			MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
			MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
			MockResponse{Content: json.RawMessage(`{}`)},
		)
		_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
		assert.Equal(t, 3, mock.CallCount())
	})

	t.Run("invalid response retried once", func(t *testing.T) {
		bad := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}}
		mock := NewMockProvider(bad, bad, MockResponse{Content: json.RawMessage(`{}`)})
		_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
		assert.Error(t, err)
		assert.Equal(t, 2, mock.CallCount())
	})

	t.Run("max tokens not retried", func(t *testing.T) {
		mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}})
		_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
		assert.Error(t, err)
		assert.Equal(t, 1, mock.CallCount())
	})
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"first","choices":["a","b"]}`)})
	mock.Responder = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`{"name":"fallback","choices":["a","b"]}`)}
	}

	req := UserPrompt("sys", "go")
	req.Schema = itemSchema()

	first, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, string(first.Content), "first")

	second, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, string(second.Content), "fallback")
	assert.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "go", mock.Calls[0].Messages[0].Content)

	empty := NewMockProvider()
	_, err = empty.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestLoggingProvider_PassesThrough(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errors.New("boom")}, MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := WithPurpose(context.Background(), "question-gen")

	_, err := p.Generate(ctx, Request{})
	assert.EqualError(t, err, "boom")

	resp, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "mock", resp.Model)
	assert.Equal(t, "question-gen", PurposeFrom(ctx))
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, GeminiOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, "g-key", cfg.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())

	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg = ConfigFromEnv()
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.Error(t, cfg.Validate())

	cfg.Provider = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unknown LLM provider")
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	cfg.Provider = ProviderAnthropic
	_, err = NewProvider(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clientCfg := openai.DefaultConfig("test-key")
	clientCfg.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), model: "gemini-2.5-flash"}
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gemini-2.5-flash",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 20, "total_tokens": 50},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var gotFormat string
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if rf, ok := body["response_format"].(map[string]any); ok {
			gotFormat, _ = rf["type"].(string)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"name":"x","choices":["a","b"]}`, "stop"))
	})

	req := UserPrompt("system", "generate")
	req.Schema = itemSchema()
	resp, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "json_object", gotFormat)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 50, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	t.Run("schema violation", func(t *testing.T) {
		p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(completion(`{"name":"x"}`, "stop"))
		})
		req := UserPrompt("", "generate")
		req.Schema = itemSchema()
		_, err := p.Generate(context.Background(), req)
		var invalid *ErrInvalidResponse
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("truncated", func(t *testing.T) {
		p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(completion(`{"name":`, "length"))
		})
		_, err := p.Generate(context.Background(), UserPrompt("", "generate"))
		var truncated *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &truncated)
	})

	t.Run("rate limited", func(t *testing.T) {
		p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "quota", "type": "rate_limit_error"},
			})
		})
		_, err := p.Generate(context.Background(), UserPrompt("", "generate"))
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})
}

func TestGeminiSchema(t *testing.T) {
	schema := geminiSchema(itemSchema().Definition)
	require.Contains(t, schema.Properties, "choices")
	assert.Equal(t, []string{"name", "choices"}, schema.Required)
	assert.NotNil(t, schema.Properties["choices"].Items)
	require.NotNil(t, schema.Properties["choices"].MinItems)
	assert.Equal(t, int64(2), *schema.Properties["choices"].MinItems)
}
