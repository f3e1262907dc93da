package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
	"google.golang.org/genai"
)

// ProviderName identifies Gemini in logs and output metadata.
const ProviderName = "gemini"

// Provider implements generation.Provider using Google's Gemini API.
type Provider struct {
	// logger is used for structured logging
	logger *slog.Logger

	// client is the Gemini API client for making requests
	client *genai.Client

	// textModel and imageModel name the models used for each call type
	textModel  string
	imageModel string
}

var _ generation.Provider = (*Provider)(nil)

// NewProvider creates a Gemini provider from the llm configuration group.
// The HTTP client bounds each request with cfg.CallTimeout.
func NewProvider(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.CallTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	logger.InfoContext(ctx, "gemini provider initialized",
		"text_model", cfg.GeminiTextModel,
		"image_model", cfg.GeminiImageModel)

	return &Provider{
		logger:     logger.With("component", "gemini_provider"),
		client:     client,
		textModel:  cfg.GeminiTextModel,
		imageModel: cfg.GeminiImageModel,
	}, nil
}

// Name returns "gemini".
func (p *Provider) Name() string {
	return ProviderName
}

// GenerateText sends req to the text model and returns the joined text parts
// of the first candidate.
func (p *Provider) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	if err := generation.ValidatePrompt(req.Prompt); err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	p.logger.DebugContext(ctx, "making gemini text call",
		"model", p.textModel,
		"prompt_length", len(req.Prompt))

	resp, err := p.client.Models.GenerateContent(ctx, p.textModel, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", classifyError(err)
	}

	text, err := textFromResponse(resp)
	if err != nil {
		p.logger.WarnContext(ctx, "unusable gemini text response", "error", err)
		return "", err
	}
	return text, nil
}

// GenerateImage sends req to the image model and returns the inline images.
func (p *Provider) GenerateImage(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error) {
	if err := generation.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: int32(req.Count()),
		AspectRatio:    aspectRatio(req.Size),
	}

	p.logger.DebugContext(ctx, "making gemini image call",
		"model", p.imageModel,
		"count", req.Count())

	resp, err := p.client.Models.GenerateImages(ctx, p.imageModel, req.Prompt, cfg)
	if err != nil {
		return nil, classifyError(err)
	}

	images, err := imagesFromResponse(resp)
	if err != nil {
		p.logger.WarnContext(ctx, "unusable gemini image response", "error", err)
		return nil, err
	}
	return images, nil
}
