package generation_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/phrazzld/content-repurposer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_GenerateText(t *testing.T) {
	t.Parallel()

	p := generation.NewStaticProvider()
	req := generation.TextRequest{SystemPrompt: "You write tweets.", Prompt: "Summarise the post"}

	first, err := p.GenerateText(context.Background(), req)
	require.NoError(t, err)
	second, err := p.GenerateText(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Summarise the post")

	_, err = p.GenerateText(context.Background(), generation.TextRequest{Prompt: "   "})
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
}

func TestStaticProvider_GenerateImage(t *testing.T) {
	t.Parallel()

	p := generation.NewStaticProvider()
	images, err := p.GenerateImage(context.Background(), generation.ImageRequest{
		Prompt: "a lighthouse at dusk",
		Size:   "64x32",
		N:      2,
	})
	require.NoError(t, err)
	require.Len(t, images, 2)

	cfg, err := png.DecodeConfig(bytes.NewReader(images[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, "static", images[0].Provider)
	assert.NotEqual(t, images[0].Data, images[1].Data)

	again, err := p.GenerateImage(context.Background(), generation.ImageRequest{Prompt: "a lighthouse at dusk", Size: "64x32"})
	require.NoError(t, err)
	assert.Equal(t, images[0].Data, again[0].Data)
}

func TestStaticProvider_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := generation.NewStaticProvider().GenerateImage(ctx, generation.ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
