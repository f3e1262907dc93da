package domain

import (
	"fmt"
	"strings"
)

// ContentKind identifies a target platform or asset produced from a blog post.
type ContentKind string

// Supported content kinds. The set is closed.
const (
	ContentKindTwitter   ContentKind = "twitter"
	ContentKindInstagram ContentKind = "instagram"
	ContentKindLinkedIn  ContentKind = "linkedin"
	ContentKindFacebook  ContentKind = "facebook"
	ContentKindThumbnail ContentKind = "thumbnail"
)

// AllContentKinds returns every supported kind in canonical order.
// A fresh slice is returned on every call.
func AllContentKinds() []ContentKind {
	return []ContentKind{
		ContentKindTwitter,
		ContentKindInstagram,
		ContentKindLinkedIn,
		ContentKindFacebook,
		ContentKindThumbnail,
	}
}

// ParseContentKind converts a raw value into a ContentKind.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseContentKind(raw string) (ContentKind, error) {
	kind := ContentKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidContentKind, raw)
	}
	return kind, nil
}

// IsValid reports whether k is one of the supported kinds.
func (k ContentKind) IsValid() bool {
	switch k {
	case ContentKindTwitter, ContentKindInstagram, ContentKindLinkedIn,
		ContentKindFacebook, ContentKindThumbnail:
		return true
	default:
		return false
	}
}

// IsSocial reports whether k is a social platform that gets both a text post
// and an accompanying image. Thumbnail is the only image-only kind.
func (k ContentKind) IsSocial() bool {
	return k.IsValid() && k != ContentKindThumbnail
}

// String implements fmt.Stringer.
func (k ContentKind) String() string {
	return string(k)
}
