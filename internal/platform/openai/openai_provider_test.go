package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		OpenAIAPIKey:     "sk-test",
		OpenAITextModel:  "gpt-4o",
		OpenAIImageModel: "dall-e-3",
	}
}

// newTestProvider points a provider at handler.
func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clientCfg := goopenai.DefaultConfig("sk-test")
	clientCfg.BaseURL = srv.URL + "/v1"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newProvider(logger, goopenai.NewClientWithConfig(clientCfg), testConfig())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewProvider_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewProvider(nil, testConfig())
	assert.Error(t, err)

	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	_, err = NewProvider(logger, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	p, err := NewProvider(logger, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestProvider_GenerateText(t *testing.T) {
	t.Parallel()

	requests := make(chan goopenai.ChatCompletionRequest, 1)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req goopenai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": " 1/ Ten lessons from shipping Go \n"},
				"finish_reason": "stop",
			}},
		})
	})

	text, err := p.GenerateText(context.Background(), generation.TextRequest{
		SystemPrompt: "You write threads.",
		Prompt:       "Write a thread",
		Temperature:  0.7,
		MaxTokens:    300,
	})
	require.NoError(t, err)
	assert.Equal(t, "1/ Ten lessons from shipping Go", text)

	got := <-requests
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Write a thread", got.Messages[1].Content)
	assert.Equal(t, 300, got.MaxTokens)
}

func TestProvider_GenerateText_ContentFilter(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": ""},
				"finish_reason": "content_filter",
			}},
		})
	})

	_, err := p.GenerateText(context.Background(), generation.TextRequest{Prompt: "x"})
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
}

func TestProvider_GenerateImage(t *testing.T) {
	t.Parallel()

	requests := make(chan goopenai.ImageRequest, 1)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		var req goopenai.ImageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		writeJSON(w, http.StatusOK, map[string]any{
			"created": 1,
			"data": []map[string]any{
				{"b64_json": base64.StdEncoding.EncodeToString([]byte("png-bytes"))},
				{"url": "https://images.example/2.png"},
			},
		})
	})

	images, err := p.GenerateImage(context.Background(), generation.ImageRequest{Prompt: "a cat", Size: "1024x1024"})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []byte("png-bytes"), images[0].Data)
	assert.Equal(t, "https://images.example/2.png", images[1].URL)
	assert.Equal(t, "openai", images[1].Provider)

	got := <-requests
	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, goopenai.CreateImageResponseFormatB64JSON, got.ResponseFormat)
}

func TestProvider_ErrorStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, generation.ErrTransientFailure},
		{"server error", http.StatusBadGateway, generation.ErrTransientFailure},
		{"unauthorized", http.StatusUnauthorized, generation.ErrInvalidConfig},
		{"bad request", http.StatusBadRequest, generation.ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{
					"error": map[string]any{"message": "nope", "type": "test_error"},
				})
			})

			_, err := p.GenerateText(context.Background(), generation.TextRequest{Prompt: "x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassifyError_Context(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, classifyError(context.DeadlineExceeded), generation.ErrTransientFailure)
	assert.Equal(t, context.Canceled, classifyError(context.Canceled))
	assert.ErrorIs(t, classifyError(errors.New("boom")), generation.ErrGenerationFailed)
}
