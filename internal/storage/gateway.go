package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/phrazzld/content-repurposer/internal/config"
)

// Gateway defines the operations for persisting binary assets.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Save writes data under key and returns a locator for it.
	// Writing the same key twice replaces the first asset.
	Save(ctx context.Context, data []byte, key string) (string, error)

	// Load returns the bytes stored at locator.
	// Returns ErrNotFound if nothing is stored there.
	Load(ctx context.Context, locator string) ([]byte, error)

	// Delete removes the asset at locator. Deleting a missing asset is not an error.
	Delete(ctx context.Context, locator string) error
}

// Backend names accepted by New
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// New creates the Gateway selected by cfg.Backend.
// The GCS backend holds a client that callers should close when done; it
// implements io.Closer.
func New(ctx context.Context, cfg config.StorageConfig) (Gateway, error) {
	switch cfg.Backend {
	case BackendLocal:
		store, err := NewFileStore(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendGCS:
		store, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// sanitizeKey normalizes a key to a slash separated relative path and
// prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: key is required", ErrInvalidKey)
	}
	key = strings.ReplaceAll(key, "\\", "/")
	cleaned := path.Clean(strings.TrimLeft(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// IsNotFound reports whether err means the asset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
