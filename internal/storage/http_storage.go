package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxImageBytes caps downloaded image bodies
const DefaultMaxImageBytes = 16 * 1024 * 1024

const maxFetchAttempts = 3

// ImageFetcher retrieves raw image bytes from a remote location
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPFetcherOptions tunes the HTTP fetcher
type HTTPFetcherOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	// Wait before retry n is n*Backoff
	Backoff time.Duration
}

// DefaultHTTPFetcherOptions returns the production settings
func DefaultHTTPFetcherOptions() HTTPFetcherOptions {
	return HTTPFetcherOptions{
		Timeout:  30 * time.Second,
		MaxBytes: DefaultMaxImageBytes,
		Backoff:  time.Second,
	}
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
	backoff  time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts HTTPFetcherOptions) *HTTPImageFetcher {
	transport := &http.Transport{
		// Connection pooling sized for single image downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: opts.MaxBytes,
		backoff:  opts.Backoff,
	}
}

// FetchImage downloads imageURL. Network errors and 5xx responses are
// retried up to three attempts in total; 4xx responses fail immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		data, retryable, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", maxFetchAttempts, lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Lesion-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if resp.ContentLength > h.maxBytes {
		return nil, false, fmt.Errorf("image too large: %d bytes (limit %d)", resp.ContentLength, h.maxBytes)
	}
	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// readLimited reads r fully, failing when it holds more than limit bytes
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image too large: exceeds %d bytes", limit)
	}
	return data, nil
}
