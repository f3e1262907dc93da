package gemini

import (
	"testing"

	"github.com/phrazzld/content-repurposer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestTextFromResponse(t *testing.T) {
	t.Parallel()

	t.Run("joins text parts", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "1/ Shipping Go "},
					{Text: "taught us ten things. "},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		}
		text, err := textFromResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, "1/ Shipping Go taught us ten things.", text)
	})

	t.Run("safety finish reason is blocked", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		_, err := textFromResponse(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("blocked prompt", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason: genai.BlockedReasonSafety,
			},
		}
		_, err := textFromResponse(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("empty responses are invalid", func(t *testing.T) {
		t.Parallel()
		for _, resp := range []*genai.GenerateContentResponse{
			nil,
			{},
			{Candidates: []*genai.Candidate{{}}},
			{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}}},
		} {
			_, err := textFromResponse(resp)
			assert.ErrorIs(t, err, generation.ErrInvalidResponse)
		}
	})
}

func TestImagesFromResponse(t *testing.T) {
	t.Parallel()

	t.Run("collects inline images", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{
				{Image: &genai.Image{ImageBytes: []byte("png-bytes"), MIMEType: "image/png"}},
				{Image: &genai.Image{ImageBytes: []byte("jpeg-bytes")}},
			},
		}
		images, err := imagesFromResponse(resp)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, []byte("png-bytes"), images[0].Data)
		assert.Equal(t, "image/png", images[1].MIMEType)
		assert.Equal(t, ProviderName, images[0].Provider)
	})

	t.Run("all filtered is blocked", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "violence"}},
		}
		_, err := imagesFromResponse(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("no images is invalid", func(t *testing.T) {
		t.Parallel()
		_, err := imagesFromResponse(&genai.GenerateImagesResponse{})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestAspectRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1:1", aspectRatio("1024x1024"))
	assert.Equal(t, "16:9", aspectRatio("1792x1024"))
	assert.Equal(t, "9:16", aspectRatio("1024x1792"))
	assert.Equal(t, "4:3", aspectRatio("1280x960"))
	assert.Equal(t, "", aspectRatio("large"))
}
