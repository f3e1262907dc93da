package gemini

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/content-repurposer/internal/generation"
	"google.golang.org/genai"
)

// textFromResponse extracts the text of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: response contained no text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// imagesFromResponse collects the inline images of a GenerateImages response.
// Images removed by the responsible-AI filter are skipped; if all are
// removed the content counts as blocked.
func imagesFromResponse(resp *genai.GenerateImagesResponse) ([]generation.Image, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: no images generated", generation.ErrInvalidResponse)
	}

	images := make([]generation.Image, 0, len(resp.GeneratedImages))
	filtered := ""
	for _, generated := range resp.GeneratedImages {
		if generated == nil {
			continue
		}
		if generated.RAIFilteredReason != "" {
			filtered = generated.RAIFilteredReason
			continue
		}
		if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}

		mime := generated.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, generation.Image{
			Data:     generated.Image.ImageBytes,
			MIMEType: mime,
			Provider: ProviderName,
		})
	}

	if len(images) == 0 {
		if filtered != "" {
			return nil, fmt.Errorf("%w: %s", generation.ErrContentBlocked, filtered)
		}
		return nil, fmt.Errorf("%w: images contained no data", generation.ErrInvalidResponse)
	}
	return images, nil
}

// aspectRatio converts a WIDTHxHEIGHT size into the nearest ratio Imagen
// accepts. Unknown sizes use the model default.
func aspectRatio(size string) string {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return ""
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return ""
	}

	ratio := float64(width) / float64(height)
	switch {
	case ratio >= 1.6:
		return "16:9"
	case ratio >= 1.2:
		return "4:3"
	case ratio <= 1/1.6:
		return "9:16"
	case ratio <= 1/1.2:
		return "3:4"
	default:
		return "1:1"
	}
}
