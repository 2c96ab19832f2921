// Package scraper fetches the IPEA scholarship-call listing page and
// extracts raw notice records from it.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves the listing page over HTTP with a hard timeout.
type Fetcher struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewFetcher constructs a fetcher with a shared HTTP client.
func NewFetcher(url, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the listing page body. Any non-200 status is an error.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", f.url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
