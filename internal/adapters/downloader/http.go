package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Renderer output is text; anything bigger than this is not a page list.
const maxBodyBytes = 16 << 20

// HTTPDownloader implements ports.Source by fetching renderer output over HTTP.
type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

// ErrBodyTooLarge is returned instead of a truncated document.
var ErrBodyTooLarge = errors.New("renderer output too large")

// NewHTTPDownloader creates a new HTTPDownloader.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &HTTPDownloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBodyBytes,
	}
}

// Open fetches the document at location.
func (d *HTTPDownloader) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch renderer output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read renderer output: %w", err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, d.maxBytes)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
