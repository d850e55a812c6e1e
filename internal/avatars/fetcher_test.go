package avatars

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPFetcherFetch(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	server := imageServer(t, "image/png", payload)

	fetcher := NewHTTPFetcher(time.Second, 1024)
	image, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if image.ContentType != "image/png" || image.Ext != "png" {
		t.Fatalf("unexpected image metadata: %+v", image)
	}
	if !bytes.Equal(image.Data, payload) {
		t.Fatalf("unexpected image data: %v", image.Data)
	}
}

func TestHTTPFetcherStripsContentTypeParams(t *testing.T) {
	server := imageServer(t, "image/jpeg; charset=binary", []byte{0xff, 0xd8})

	fetcher := NewHTTPFetcher(time.Second, 1024)
	image, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if image.Ext != "jpg" {
		t.Fatalf("expected jpg extension got %q", image.Ext)
	}
}

func TestHTTPFetcherRejectsUnsupportedContentType(t *testing.T) {
	server := imageServer(t, "text/html", []byte("<html></html>"))

	fetcher := NewHTTPFetcher(time.Second, 1024)
	if _, err := fetcher.Fetch(context.Background(), server.URL); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage got %v", err)
	}
}

func TestHTTPFetcherRejectsOversizedImage(t *testing.T) {
	server := imageServer(t, "image/png", bytes.Repeat([]byte{0x01}, 64))

	fetcher := NewHTTPFetcher(time.Second, 32)
	if _, err := fetcher.Fetch(context.Background(), server.URL); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge got %v", err)
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(time.Second, 1024)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
