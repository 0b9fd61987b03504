package mimi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gwire/mimi-headers/vmc"
)

// DefaultTimeout bounds every network operation. Failed fetches are terminal
// for the invocation; there are no automatic retries.
const DefaultTimeout = 10 * time.Second

// maxFetchSize bounds any single HTTP response body. Certificate bundles can
// legitimately exceed the indicator cap, so this transport cap is looser;
// the indicator-specific cap is enforced after decompression.
const maxFetchSize = 1 << 20

// Fetch errors.
var (
	// ErrNotHTTPS indicates a URL with a scheme other than https. Such URLs
	// are never dereferenced.
	ErrNotHTTPS = errors.New("mimi: only https urls are fetched")

	// ErrFetchStatus indicates a non-200 HTTP response.
	ErrFetchStatus = errors.New("mimi: unexpected http status")

	// ErrFetchTooLarge indicates a response body over the transport cap.
	ErrFetchTooLarge = errors.New("mimi: response body too large")
)

// NewFetcher returns a FetchFunc on the given client, enforcing the
// https-only rule and the transport size cap. A nil client gets a default
// with DefaultTimeout.
func NewFetcher(client *http.Client) vmc.FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return func(ctx context.Context, rawURL string) ([]byte, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("mimi: parsing url %q: %w", rawURL, err)
		}
		if u.Scheme != "https" {
			return nil, fmt.Errorf("%w: %q", ErrNotHTTPS, rawURL)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("mimi: building request for %q: %w", rawURL, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mimi: fetching %q: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d for %q", ErrFetchStatus, resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
		if err != nil {
			return nil, fmt.Errorf("mimi: reading %q: %w", rawURL, err)
		}
		if len(body) > maxFetchSize {
			return nil, fmt.Errorf("%w: %q", ErrFetchTooLarge, rawURL)
		}
		return body, nil
	}
}
