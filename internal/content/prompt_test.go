package content

import (
	"strings"
	"testing"

	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTitle = "Ten Lessons From Shipping Go"
	testBody  = "We shipped a Go service to production and learned a lot."
)

func TestBuildTextPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     domain.ContentKind
		contains []string
	}{
		{domain.ContentKindTwitter, []string{"Twitter thread", "280 characters", "1/"}},
		{domain.ContentKindInstagram, []string{"Instagram caption", "150-300 words"}},
		{domain.ContentKindLinkedIn, []string{"LinkedIn post", "200-500 words", "call to action"}},
		{domain.ContentKindFacebook, []string{"Facebook post", "150-400 words", "question or call to action"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			p, err := BuildTextPrompt(tt.kind, testTitle, testBody, domain.JobMetadata{})
			require.NoError(t, err)

			combined := p.System + "\n" + p.User
			for _, want := range tt.contains {
				assert.Contains(t, combined, want)
			}
			assert.Contains(t, p.User, "Blog Title: "+testTitle)
			assert.Contains(t, p.User, testBody)
			assert.NotContains(t, p.User, "tone")
			assert.Equal(t, PostTemperature, p.Temperature)
			assert.Zero(t, p.MaxTokens)
		})
	}
}

func TestBuildTextPrompt_ToneAndHashtags(t *testing.T) {
	t.Parallel()

	meta := domain.JobMetadata{Tone: "witty", Hashtags: []string{"#golang", " ", "#devops"}}
	p, err := BuildTextPrompt(domain.ContentKindTwitter, testTitle, testBody, meta)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(p.User,
		"Use a witty tone for the thread.\n\nInclude these hashtags: #golang, #devops"))

	again, err := BuildTextPrompt(domain.ContentKindTwitter, testTitle, testBody, meta)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestBuildTextPrompt_Errors(t *testing.T) {
	t.Parallel()

	_, err := BuildTextPrompt(domain.ContentKindThumbnail, testTitle, testBody, domain.JobMetadata{})
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = BuildTextPrompt("myspace", testTitle, testBody, domain.JobMetadata{})
	assert.ErrorIs(t, err, domain.ErrInvalidContentKind)

	_, err = BuildTextPrompt(domain.ContentKindTwitter, " ", testBody, domain.JobMetadata{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuildImagePrompt_Social(t *testing.T) {
	t.Parallel()

	t.Run("includes generated text", func(t *testing.T) {
		t.Parallel()
		p, err := BuildImagePrompt(domain.ContentKindLinkedIn, testTitle, testBody,
			"Here are ten lessons.", domain.JobMetadata{})
		require.NoError(t, err)

		assert.Contains(t, p.System, "for a linkedin post")
		assert.Contains(t, p.User, "Platform: linkedin")
		assert.Contains(t, p.User, "Generated linkedin content:\nHere are ten lessons.")
		assert.Equal(t, ImageDescriptionMaxTokens, p.MaxTokens)
	})

	t.Run("missing text is marked", func(t *testing.T) {
		t.Parallel()
		p, err := BuildImagePrompt(domain.ContentKindTwitter, testTitle, testBody, "", domain.JobMetadata{})
		require.NoError(t, err)
		assert.Contains(t, p.User, "Generated twitter content:\nNot available")
	})

	t.Run("style tone and hashtags in order", func(t *testing.T) {
		t.Parallel()
		p, err := BuildImagePrompt(domain.ContentKindInstagram, testTitle, testBody, "caption", domain.JobMetadata{
			Style:    "watercolor",
			Tone:     "calm",
			Hashtags: []string{"#go"},
		})
		require.NoError(t, err)

		style := strings.Index(p.User, "The image should be in a watercolor style.")
		tone := strings.Index(p.User, "The image should match a calm tone.")
		tags := strings.Index(p.User, "The image should be relevant to these hashtags: #go.")
		require.Positive(t, style)
		assert.Less(t, style, tone)
		assert.Less(t, tone, tags)
	})
}

func TestBuildImagePrompt_Thumbnail(t *testing.T) {
	t.Parallel()

	p, err := BuildImagePrompt(domain.ContentKindThumbnail, testTitle, testBody, "ignored", domain.JobMetadata{Style: "flat"})
	require.NoError(t, err)

	assert.Contains(t, p.System, "thumbnail image")
	assert.Contains(t, p.User, "visual theme of this article")
	assert.NotContains(t, p.User, "ignored")
	assert.True(t, strings.HasSuffix(p.User, "The image should be in a flat style."))
	assert.Equal(t, ImageDescriptionMaxTokens, p.TextRequest().MaxTokens)
	assert.Equal(t, p.User, p.TextRequest().Prompt)
}

func TestPromptsAreDeterministic(t *testing.T) {
	t.Parallel()

	meta := domain.JobMetadata{
		Tone:     "casual",
		Style:    "flat illustration",
		Hashtags: []string{"golang", "devops"},
	}

	for _, kind := range domain.AllContentKinds() {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			first, err := BuildImagePrompt(kind, testTitle, testBody, "1/ lessons", meta)
			require.NoError(t, err)
			second, err := BuildImagePrompt(kind, testTitle, testBody, "1/ lessons", meta)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			if !kind.IsSocial() {
				return
			}
			first, err = BuildTextPrompt(kind, testTitle, testBody, meta)
			require.NoError(t, err)
			second, err = BuildTextPrompt(kind, testTitle, testBody, meta)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}
