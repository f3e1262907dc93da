package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
)

// ProviderName identifies OpenAI in logs and output metadata.
const ProviderName = "openai"

// Provider implements generation.Provider using the OpenAI API.
type Provider struct {
	logger     *slog.Logger
	client     *goopenai.Client
	textModel  string
	imageModel string
}

var _ generation.Provider = (*Provider)(nil)

// NewProvider creates an OpenAI provider from the llm configuration group.
func NewProvider(logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.OpenAITextModel == "" || cfg.OpenAIImageModel == "" {
		return nil, fmt.Errorf("%w: openai text and image models are required", generation.ErrInvalidConfig)
	}

	clientCfg := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.CallTimeout}

	return newProvider(logger, goopenai.NewClientWithConfig(clientCfg), cfg), nil
}

func newProvider(logger *slog.Logger, client *goopenai.Client, cfg config.LLMConfig) *Provider {
	return &Provider{
		logger:     logger.With("component", "openai_provider"),
		client:     client,
		textModel:  cfg.OpenAITextModel,
		imageModel: cfg.OpenAIImageModel,
	}
}

// Name returns "openai".
func (p *Provider) Name() string {
	return ProviderName
}

// GenerateText sends req as a chat completion and returns the first choice.
func (p *Provider) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	if err := generation.ValidatePrompt(req.Prompt); err != nil {
		return "", err
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	p.logger.DebugContext(ctx, "making openai chat call",
		"model", p.textModel,
		"prompt_length", len(req.Prompt))

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.textModel,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classifyError(err)
	}
	return textFromResponse(resp)
}

// GenerateImage requests req.Count() images as base64 JSON.
// URL responses are passed through for the caller to download.
func (p *Provider) GenerateImage(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error) {
	if err := generation.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}

	size := req.Size
	if size == "" {
		size = goopenai.CreateImageSize1024x1024
	}

	p.logger.DebugContext(ctx, "making openai image call",
		"model", p.imageModel,
		"size", size,
		"count", req.Count())

	resp, err := p.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          p.imageModel,
		N:              req.Count(),
		Size:           size,
		Quality:        goopenai.CreateImageQualityStandard,
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return imagesFromResponse(resp)
}

func textFromResponse(resp goopenai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: content filtered", generation.ErrContentBlocked)
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty message content", generation.ErrInvalidResponse)
	}
	return text, nil
}

func imagesFromResponse(resp goopenai.ImageResponse) ([]generation.Image, error) {
	images := make([]generation.Image, 0, len(resp.Data))
	for _, item := range resp.Data {
		switch {
		case item.B64JSON != "":
			data, err := base64.StdEncoding.DecodeString(item.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("%w: decode image: %v", generation.ErrInvalidResponse, err)
			}
			images = append(images, generation.Image{
				Data:     data,
				MIMEType: "image/png",
				Provider: ProviderName,
			})
		case item.URL != "":
			images = append(images, generation.Image{
				URL:      item.URL,
				Provider: ProviderName,
			})
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images in response", generation.ErrInvalidResponse)
	}
	return images, nil
}

// classifyError maps go-openai errors onto the generation error taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: openai request timed out: %w", generation.ErrTransientFailure, err)
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		if apiErr.Code == "content_policy_violation" {
			return fmt.Errorf("%w: openai: %w", generation.ErrContentBlocked, err)
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: openai returned status %d: %w", generation.ErrTransientFailure, status, err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: openai rejected credentials: %w", generation.ErrInvalidConfig, err)
	default:
		return fmt.Errorf("%w: openai: %w", generation.ErrGenerationFailed, err)
	}
}
