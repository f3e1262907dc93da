package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxImageBytes caps the size of a downloaded image.
const MaxImageBytes = 20 << 20

// ErrImageTooLarge is returned when a download exceeds MaxImageBytes.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// ImageFetcher downloads an image a provider returned by URL.
type ImageFetcher interface {
	// Fetch returns the image bytes and their MIME type.
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPImageFetcher fetches images over HTTP.
type HTTPImageFetcher struct {
	client *http.Client
}

// NewHTTPImageFetcher creates an HTTPImageFetcher using client.
// The client's timeout bounds each download.
func NewHTTPImageFetcher(client *http.Client) *HTTPImageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPImageFetcher{client: client}
}

// Fetch implements ImageFetcher. Any status other than 200 is an error.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("get image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("read image: empty body")
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(mimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
