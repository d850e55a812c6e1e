package avatars

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Image holds a fetched avatar ready for upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Fetcher retrieves a remote avatar image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Image, error)
}

// HTTPFetcher downloads avatar images over HTTP with a size cap.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher constructs a fetcher with the provided timeout and size limit.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the image at url, rejecting non-image content types and
// payloads beyond the size limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build avatar request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch avatar %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch avatar %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	ext, ok := extByContentType[contentType]
	if !ok {
		return Image{}, fmt.Errorf("%w: content type %q", ErrUnsupportedImage, contentType)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read avatar body: %w", err)
	}
	if n > f.maxBytes {
		return Image{}, ErrImageTooLarge
	}

	return Image{Data: buf.Bytes(), ContentType: contentType, Ext: ext}, nil
}
