package domain

import (
	"encoding/json"
	"fmt"
)

// Well-known metadata keys. Any other key is preserved in JobMetadata.Extra.
const (
	MetadataKeyContentTypes = "content_types"
	MetadataKeyTone         = "tone"
	MetadataKeyHashtags     = "hashtags"
	MetadataKeyStyle        = "style"

	// legacyRetryCountKey held the retry counter before it became a column.
	// It is dropped on decode.
	legacyRetryCountKey = "retry_count"
)

// JobMetadata holds the generation options submitted with a job.
// Unknown keys round-trip through Extra unchanged.
type JobMetadata struct {
	ContentTypes []ContentKind
	Tone         string
	Hashtags     []string
	Style        string
	Extra        map[string]any
}

// RequestedKinds returns the kinds this job should produce.
// An empty ContentTypes means every supported kind. Duplicates are removed
// while keeping the first occurrence's position.
func (m JobMetadata) RequestedKinds() ([]ContentKind, error) {
	if len(m.ContentTypes) == 0 {
		return AllContentKinds(), nil
	}

	seen := make(map[ContentKind]struct{}, len(m.ContentTypes))
	kinds := make([]ContentKind, 0, len(m.ContentTypes))
	for _, kind := range m.ContentTypes {
		if !kind.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidContentKind, string(kind))
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// Validate checks that every requested kind is supported.
func (m JobMetadata) Validate() error {
	_, err := m.RequestedKinds()
	return err
}

// MarshalJSON flattens the typed fields and Extra into one object.
func (m JobMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	if len(m.ContentTypes) > 0 {
		out[MetadataKeyContentTypes] = m.ContentTypes
	}
	if m.Tone != "" {
		out[MetadataKeyTone] = m.Tone
	}
	if len(m.Hashtags) > 0 {
		out[MetadataKeyHashtags] = m.Hashtags
	}
	if m.Style != "" {
		out[MetadataKeyStyle] = m.Style
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object into the typed fields and Extra.
func (m *JobMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: metadata must be a JSON object: %v", ErrValidation, err)
	}

	*m = JobMetadata{}
	for key, value := range raw {
		var err error
		switch key {
		case MetadataKeyContentTypes:
			err = json.Unmarshal(value, &m.ContentTypes)
		case MetadataKeyTone:
			err = json.Unmarshal(value, &m.Tone)
		case MetadataKeyHashtags:
			err = json.Unmarshal(value, &m.Hashtags)
		case MetadataKeyStyle:
			err = json.Unmarshal(value, &m.Style)
		case legacyRetryCountKey:
			continue
		default:
			var v any
			err = json.Unmarshal(value, &v)
			if err == nil {
				if m.Extra == nil {
					m.Extra = make(map[string]any)
				}
				m.Extra[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("%w: metadata key %q: %v", ErrValidation, key, err)
		}
	}
	return nil
}
