package gemini

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:     "test-api-key",
		GeminiTextModel:  "gemini-2.0-flash",
		GeminiImageModel: "imagen-3.0-generate-002",
		CallTimeout:      time.Minute,
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		logger   *slog.Logger
		mutate   func(*config.LLMConfig)
		errorMsg string
	}{
		{"nil logger", nil, func(*config.LLMConfig) {}, "logger cannot be nil"},
		{"missing key", logger, func(c *config.LLMConfig) { c.GeminiAPIKey = "" }, "API key"},
		{"missing text model", logger, func(c *config.LLMConfig) { c.GeminiTextModel = "" }, "text model"},
		{"missing image model", logger, func(c *config.LLMConfig) { c.GeminiImageModel = "" }, "image model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validLLMConfig()
			tt.mutate(&cfg)

			p, err := NewProvider(context.Background(), tt.logger, cfg)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		p, err := NewProvider(context.Background(), logger, validLLMConfig())
		require.NoError(t, err)
		assert.Equal(t, "gemini", p.Name())

		_, err = p.GenerateText(context.Background(), generation.TextRequest{Prompt: ""})
		assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
	})
}
