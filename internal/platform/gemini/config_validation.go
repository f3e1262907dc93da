package gemini

import (
	"fmt"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
)

// validateConfig checks the settings the Gemini adapter needs.
func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.GeminiTextModel == "" {
		return fmt.Errorf("%w: gemini text model cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.GeminiImageModel == "" {
		return fmt.Errorf("%w: gemini image model cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}
