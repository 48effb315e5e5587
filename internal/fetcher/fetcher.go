package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Client retrieves raw bytes for one image reference. Remote references go
// over HTTP with a fixed identifying User-Agent; everything else is treated
// as a local filesystem path. No retries beyond the transport's own behavior.
type Client struct {
	http      *http.Client
	userAgent string
}

func New(userAgent string) *Client {
	return &Client{
		http:      &http.Client{},
		userAgent: userAgent,
	}
}

// Fetch dispatches on the reference shape: absolute http(s) URLs are fetched
// over the network, anything else is read from local storage.
func (c *Client) Fetch(ctx context.Context, reference string) ([]byte, error) {
	if isRemote(reference) {
		return c.Remote(ctx, reference)
	}
	return c.Local(reference)
}

// Remote performs a GET against the given URL. Non-2xx responses are errors.
func (c *Client) Remote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return data, nil
}

// Local reads a file from disk.
func (c *Client) Local(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func isRemote(reference string) bool {
	return strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://")
}
