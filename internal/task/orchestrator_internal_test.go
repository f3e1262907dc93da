package task

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTextSlot(t *testing.T) {
	t.Parallel()

	t.Run("returns filled text", func(t *testing.T) {
		t.Parallel()
		slot := newTextSlot()
		go slot.fill("1/ hello")
		assert.Equal(t, "1/ hello", slot.wait(context.Background(), 0))
	})

	t.Run("failed text yields empty", func(t *testing.T) {
		t.Parallel()
		slot := newTextSlot()
		slot.fill("")
		assert.Empty(t, slot.wait(context.Background(), time.Second))
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()
		slot := newTextSlot()
		start := time.Now()
		assert.Empty(t, slot.wait(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()
		slot := newTextSlot()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Empty(t, slot.wait(ctx, 0))
	})
}

func TestImageKey(t *testing.T) {
	t.Parallel()

	key := imageKey(domain.ContentKindThumbnail, "image/png")
	assert.True(t, strings.HasPrefix(key, "thumbnails/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)

	key = imageKey(domain.ContentKindLinkedIn, "image/jpeg")
	assert.True(t, strings.HasPrefix(key, "linkedin_images/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	assert.NotEqual(t, imageKey(domain.ContentKindTwitter, ""), imageKey(domain.ContentKindTwitter, ""))
	assert.Equal(t, ".webp", imageExtension("image/webp"))
	assert.Equal(t, ".png", imageExtension("application/octet-stream"))
}
