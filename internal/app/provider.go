package app

import (
	"context"
	"log/slog"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
	"github.com/phrazzld/content-repurposer/internal/metrics"
	"github.com/phrazzld/content-repurposer/internal/platform/gemini"
	"github.com/phrazzld/content-repurposer/internal/platform/openai"
)

// NewProvider builds the generation provider chain. Each configured remote
// provider is wrapped in retries; with both keys set Gemini is primary and
// OpenAI the fallback. With no keys the offline static provider is used.
func NewProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Provider, error) {
	retrier := generation.NewRetrier(generation.RetryConfigFromLLM(cfg), logger,
		generation.WithRetryHook(func(op string, attempt int, err error) {
			metrics.ProviderRetriesTotal.WithLabelValues(op).Inc()
		}))

	var chain []generation.Provider
	if cfg.GeminiAPIKey != "" {
		p, err := gemini.NewProvider(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		chain = append(chain, generation.WithRetry(p, retrier))
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := openai.NewProvider(logger, cfg)
		if err != nil {
			return nil, err
		}
		chain = append(chain, generation.WithRetry(p, retrier))
	}

	switch len(chain) {
	case 0:
		logger.WarnContext(ctx, "no LLM API keys configured; using the static provider")
		return generation.NewStaticProvider(), nil
	case 1:
		return chain[0], nil
	default:
		return generation.NewFallbackProvider(chain[0], chain[1], logger), nil
	}
}
