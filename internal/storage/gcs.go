package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// GCSStore persists assets as objects in a Google Cloud Storage bucket.
// Locators have the form gs://bucket/prefix/key.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

var _ Gateway = (*GCSStore)(nil)

// NewGCSStore creates a GCSStore. With an empty credentialsFile the client
// uses Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return NewGCSStoreWithClient(client, bucket, prefix), nil
}

// NewGCSStoreWithClient creates a GCSStore around an existing client.
func NewGCSStoreWithClient(client *gcs.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}
}

// Save uploads data as an object named prefix/key.
func (s *GCSStore) Save(ctx context.Context, data []byte, key string) (string, error) {
	name, err := s.objectName(key)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize upload %s: %w", name, err)
	}

	return s.locator(name), nil
}

// Load downloads the object at locator.
func (s *GCSStore) Load(ctx context.Context, locator string) ([]byte, error) {
	name, err := s.parseLocator(locator)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Delete removes the object at locator.
func (s *GCSStore) Delete(ctx context.Context, locator string) error {
	name, err := s.parseLocator(locator)
	if err != nil {
		return err
	}

	err = s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectName(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return cleanKey, nil
	}
	return path.Join(s.prefix, cleanKey), nil
}

func (s *GCSStore) locator(name string) string {
	return gcsScheme + s.bucket + "/" + name
}

// parseLocator returns the object name of a locator in this store's bucket.
func (s *GCSStore) parseLocator(locator string) (string, error) {
	rest, ok := strings.CutPrefix(locator, gcsScheme)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a gs:// locator", ErrInvalidLocator, locator)
	}
	bucket, name, ok := strings.Cut(rest, "/")
	if !ok || bucket != s.bucket || name == "" {
		return "", fmt.Errorf("%w: %q is not in bucket %s", ErrInvalidLocator, locator, s.bucket)
	}
	if _, err := sanitizeKey(name); err != nil {
		return "", err
	}
	return name, nil
}
