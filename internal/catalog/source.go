package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/service"
)

// maxCatalogBytes caps how much of a remote response is read.
const maxCatalogBytes = 8 << 20

// FileSource reads a catalog from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch reads the catalog file.
func (f FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", common.ErrCatalogUnavailable, f.Path)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrCatalogUnavailable, err)
	}
	return data, nil
}

// Describe names the source in logs.
func (f FileSource) Describe() string {
	return f.Path
}

// HTTPSource downloads a catalog over HTTP with retries.
type HTTPSource struct {
	Client  *http.Client
	URL     string
	Retry   service.RetryOptions
	Timeout time.Duration
}

// NewHTTPSource creates a source with a 30 second timeout and three attempts.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:     url,
		Client:  http.DefaultClient,
		Timeout: 30 * time.Second,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
}

// Fetch downloads the catalog. Server errors and rate limits are retried; other
// non-200 responses fail immediately.
func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	var body []byte
	err := common.WithRetry(ctx, func() error {
		b, err := h.fetchOnce(ctx, client)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, h.Retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCatalogUnavailable, err)
	}
	return body, nil
}

func (h *HTTPSource) fetchOnce(ctx context.Context, client *http.Client) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, common.Permanent(err)
		}
		return nil, common.Transient(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", common.ErrRateLimit, resp.Status)
	case resp.StatusCode >= 500:
		return nil, common.Transient(fmt.Errorf("catalog server returned %s", resp.Status))
	default:
		return nil, common.Permanent(fmt.Errorf("catalog server returned %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, common.Transient(fmt.Errorf("failed to read catalog: %w", err))
	}
	return data, nil
}

// Describe names the source in logs.
func (h *HTTPSource) Describe() string {
	return h.URL
}
