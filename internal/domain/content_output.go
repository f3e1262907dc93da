package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// OutputType distinguishes generated text from generated images.
type OutputType string

// Possible output types
const (
	OutputTypeText  OutputType = "text"
	OutputTypeImage OutputType = "image"
)

// Metadata keys recorded on image outputs
const (
	OutputMetaType     = "type"
	OutputMetaPrompt   = "prompt"
	OutputMetaProvider = "provider"
	OutputMetaMIMEType = "mime_type"
)

// ContentOutput is one generated artifact belonging to a job.
// Exactly one of Text and FilePath is set. Outputs are never updated after
// creation; a retried job appends new outputs next to the old ones.
type ContentOutput struct {
	ID        uuid.UUID      `json:"id"`
	JobID     uuid.UUID      `json:"job_id"`
	Kind      ContentKind    `json:"content_type"`
	Text      *string        `json:"content,omitempty"`
	FilePath  *string        `json:"file_path,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewTextOutput creates a text output for kind.
func NewTextOutput(jobID uuid.UUID, kind ContentKind, text string, metadata map[string]any) (*ContentOutput, error) {
	now := time.Now().UTC()
	out := &ContentOutput{
		ID:        uuid.New(),
		JobID:     jobID,
		Kind:      kind,
		Text:      &text,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// NewImageOutput creates an image output pointing at a storage locator.
// The "type" metadata key is always set to "image".
func NewImageOutput(jobID uuid.UUID, kind ContentKind, locator string, metadata map[string]any) (*ContentOutput, error) {
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[OutputMetaType] = string(OutputTypeImage)

	now := time.Now().UTC()
	out := &ContentOutput{
		ID:        uuid.New(),
		JobID:     jobID,
		Kind:      kind,
		FilePath:  &locator,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks if the ContentOutput has valid data.
func (o *ContentOutput) Validate() error {
	if o.ID == uuid.Nil || o.JobID == uuid.Nil {
		return fmt.Errorf("%w: output and job IDs are required", ErrInvalidID)
	}
	if !o.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidContentKind, string(o.Kind))
	}
	hasText := o.Text != nil && *o.Text != ""
	hasFile := o.FilePath != nil && *o.FilePath != ""
	if hasText == hasFile {
		return fmt.Errorf("%w: exactly one of text or file path must be set", ErrInvalidOutput)
	}
	return nil
}

// Type reports whether the output is text or an image.
func (o *ContentOutput) Type() OutputType {
	if o.FilePath != nil && *o.FilePath != "" {
		return OutputTypeImage
	}
	return OutputTypeText
}

// LatestOutputs keeps the most recent output for each (kind, type) pair.
// Retried jobs may hold several outputs per pair; readers see the newest.
// The result is ordered by kind then type.
func LatestOutputs(outputs []*ContentOutput) []*ContentOutput {
	type key struct {
		kind ContentKind
		typ  OutputType
	}

	latest := make(map[key]*ContentOutput)
	for _, out := range outputs {
		k := key{out.Kind, out.Type()}
		if cur, ok := latest[k]; !ok || out.CreatedAt.After(cur.CreatedAt) {
			latest[k] = out
		}
	}

	result := make([]*ContentOutput, 0, len(latest))
	for _, out := range latest {
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		return result[i].Type() < result[j].Type()
	})
	return result
}

// MissingKinds returns the requested kinds whose primary output is absent.
// The primary output is text for social kinds and the image for thumbnail.
// It lets callers detect a completed job whose sub-tasks partly failed.
func MissingKinds(job *Job, outputs []*ContentOutput) ([]ContentKind, error) {
	requested, err := job.Metadata.RequestedKinds()
	if err != nil {
		return nil, err
	}

	have := make(map[ContentKind]bool, len(outputs))
	for _, out := range outputs {
		if out.Kind == ContentKindThumbnail {
			if out.Type() == OutputTypeImage {
				have[out.Kind] = true
			}
			continue
		}
		if out.Type() == OutputTypeText {
			have[out.Kind] = true
		}
	}

	var missing []ContentKind
	for _, kind := range requested {
		if !have[kind] {
			missing = append(missing, kind)
		}
	}
	return missing, nil
}

// MissingImages returns the requested social kinds whose image is absent.
// A thumbnail's only output is its image, so MissingKinds already covers it.
func MissingImages(job *Job, outputs []*ContentOutput) ([]ContentKind, error) {
	requested, err := job.Metadata.RequestedKinds()
	if err != nil {
		return nil, err
	}

	have := make(map[ContentKind]bool, len(outputs))
	for _, out := range outputs {
		if out.Type() == OutputTypeImage {
			have[out.Kind] = true
		}
	}

	var missing []ContentKind
	for _, kind := range requested {
		if kind.IsSocial() && !have[kind] {
			missing = append(missing, kind)
		}
	}
	return missing, nil
}
