// Package download fetches candidate images over HTTP.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a single image body.
const DefaultMaxBytes = 20 << 20

// Client implements visuals.Downloader.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewClient creates a downloader with a per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   DefaultMaxBytes,
	}
}

// Download returns the body behind url. Non-200 responses and bodies larger
// than the size cap are errors.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("download %s: body exceeds %d bytes", url, c.maxBytes)
	}
	return data, nil
}
