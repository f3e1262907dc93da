package generation

import (
	"context"
	"strings"
)

// TextRequest describes one text generation call.
type TextRequest struct {
	// Prompt is the user message sent to the model.
	Prompt string

	// SystemPrompt sets the model's role. Optional.
	SystemPrompt string

	// Temperature controls sampling randomness.
	Temperature float32

	// MaxTokens caps the length of the reply. Zero means the provider default.
	MaxTokens int
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt string

	// Size is a WIDTHxHEIGHT hint such as "1024x1024".
	Size string

	// N is the number of images requested. Values below one mean one.
	N int
}

// Image is a generated image. Providers return either the bytes inline or a
// URL the bytes can be downloaded from.
type Image struct {
	Data     []byte
	URL      string
	MIMEType string

	// Provider names the backend that produced the image.
	Provider string
}

// Provider defines the interface for generating text and images.
// This interface serves as a boundary between the job pipeline and
// external model APIs. Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the backend in logs and output metadata.
	Name() string

	// GenerateText returns the model's reply to req.
	GenerateText(ctx context.Context, req TextRequest) (string, error)

	// GenerateImage returns at least one image for req or an error.
	GenerateImage(ctx context.Context, req ImageRequest) ([]Image, error)
}

// Count returns the number of images requested, at least one.
func (r ImageRequest) Count() int {
	if r.N < 1 {
		return 1
	}
	return r.N
}

// ValidatePrompt returns ErrEmptyPrompt if prompt has no visible characters.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}
