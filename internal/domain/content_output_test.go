package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseContentKind(" LinkedIn ")
	require.NoError(t, err)
	assert.Equal(t, ContentKindLinkedIn, kind)

	_, err = ParseContentKind("tiktok")
	assert.ErrorIs(t, err, ErrInvalidContentKind)

	assert.True(t, ContentKindTwitter.IsSocial())
	assert.False(t, ContentKindThumbnail.IsSocial())
	assert.Len(t, AllContentKinds(), 5)
}

func TestJobMetadata_RequestedKinds(t *testing.T) {
	t.Parallel()

	t.Run("defaults to every kind", func(t *testing.T) {
		t.Parallel()
		kinds, err := JobMetadata{}.RequestedKinds()
		require.NoError(t, err)
		assert.Equal(t, AllContentKinds(), kinds)
	})

	t.Run("removes duplicates in order", func(t *testing.T) {
		t.Parallel()
		kinds, err := JobMetadata{ContentTypes: []ContentKind{
			ContentKindThumbnail, ContentKindTwitter, ContentKindThumbnail,
		}}.RequestedKinds()
		require.NoError(t, err)
		assert.Equal(t, []ContentKind{ContentKindThumbnail, ContentKindTwitter}, kinds)
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		t.Parallel()
		_, err := JobMetadata{ContentTypes: []ContentKind{"vine"}}.RequestedKinds()
		assert.ErrorIs(t, err, ErrInvalidContentKind)
	})
}

func TestJobMetadata_JSONKeepsExtraKeys(t *testing.T) {
	t.Parallel()

	raw := `{"content_types":["twitter"],"tone":"witty","hashtags":["#go"],"style":"flat","campaign":"spring","retry_count":2}`

	var meta JobMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))

	assert.Equal(t, []ContentKind{ContentKindTwitter}, meta.ContentTypes)
	assert.Equal(t, "witty", meta.Tone)
	assert.Equal(t, []string{"#go"}, meta.Hashtags)
	assert.Equal(t, "flat", meta.Style)
	assert.Equal(t, map[string]any{"campaign": "spring"}, meta.Extra)

	encoded, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"content_types":["twitter"],"tone":"witty","hashtags":["#go"],"style":"flat","campaign":"spring"}`,
		string(encoded))
}

func TestNewOutputs(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()

	text, err := NewTextOutput(jobID, ContentKindTwitter, "1/ hello", nil)
	require.NoError(t, err)
	assert.Equal(t, OutputTypeText, text.Type())
	assert.Nil(t, text.FilePath)

	img, err := NewImageOutput(jobID, ContentKindTwitter, "twitter_images/a.png", map[string]any{"prompt": "a cat"})
	require.NoError(t, err)
	assert.Equal(t, OutputTypeImage, img.Type())
	assert.Nil(t, img.Text)
	assert.Equal(t, "image", img.Metadata[OutputMetaType])
	assert.Equal(t, "a cat", img.Metadata[OutputMetaPrompt])

	_, err = NewTextOutput(jobID, ContentKindTwitter, "", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)

	_, err = NewTextOutput(jobID, "vine", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidContentKind)
}

func TestLatestOutputs(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older, _ := NewTextOutput(jobID, ContentKindTwitter, "first attempt", nil)
	older.CreatedAt = base
	newer, _ := NewTextOutput(jobID, ContentKindTwitter, "second attempt", nil)
	newer.CreatedAt = base.Add(time.Minute)
	image, _ := NewImageOutput(jobID, ContentKindTwitter, "twitter_images/x.png", nil)
	image.CreatedAt = base

	latest := LatestOutputs([]*ContentOutput{newer, image, older})
	require.Len(t, latest, 2)
	assert.Equal(t, "second attempt", *latest[1].Text)
	assert.Equal(t, OutputTypeImage, latest[0].Type())
}

func TestMissingKinds(t *testing.T) {
	t.Parallel()

	job, err := NewJob(uuid.New(), "Title", "Body", JobMetadata{
		ContentTypes: []ContentKind{ContentKindTwitter, ContentKindLinkedIn, ContentKindThumbnail},
	})
	require.NoError(t, err)

	tweet, _ := NewTextOutput(job.ID, ContentKindTwitter, "1/ thread", nil)
	linkedInImage, _ := NewImageOutput(job.ID, ContentKindLinkedIn, "linkedin_images/a.png", nil)
	thumb, _ := NewImageOutput(job.ID, ContentKindThumbnail, "thumbnails/a.png", nil)

	missing, err := MissingKinds(job, []*ContentOutput{tweet, linkedInImage, thumb})
	require.NoError(t, err)
	assert.Equal(t, []ContentKind{ContentKindLinkedIn}, missing)

	missing, err = MissingKinds(job, nil)
	require.NoError(t, err)
	assert.Equal(t, []ContentKind{ContentKindTwitter, ContentKindLinkedIn, ContentKindThumbnail}, missing)
}

func TestMissingImages(t *testing.T) {
	t.Parallel()

	job, err := NewJob(uuid.New(), "Title", "Body", JobMetadata{
		ContentTypes: []ContentKind{ContentKindTwitter, ContentKindLinkedIn, ContentKindThumbnail},
	})
	require.NoError(t, err)

	tweet, _ := NewTextOutput(job.ID, ContentKindTwitter, "1/ thread", nil)
	post, _ := NewTextOutput(job.ID, ContentKindLinkedIn, "Lessons", nil)
	linkedInImage, _ := NewImageOutput(job.ID, ContentKindLinkedIn, "linkedin_images/a.png", nil)

	missing, err := MissingImages(job, []*ContentOutput{tweet, post, linkedInImage})
	require.NoError(t, err)
	assert.Equal(t, []ContentKind{ContentKindTwitter}, missing)

	// Every post exists, so only the image gap shows the partial failure.
	kinds, err := MissingKinds(job, []*ContentOutput{tweet, post, linkedInImage})
	require.NoError(t, err)
	assert.Equal(t, []ContentKind{ContentKindThumbnail}, kinds)
}
