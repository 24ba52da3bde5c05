package preload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Warmer fetches an image URL so the CDN edge (and any shared HTTP
// cache in front of it) has it hot before a user asks for it.
type Warmer interface {
	Warm(ctx context.Context, url string) error
}

// HTTPWarmer is the production Warmer: a plain GET with the body
// discarded. Responses are never interpreted; only the side effect of
// the fetch matters.
type HTTPWarmer struct {
	httpc *http.Client
}

// NewHTTPWarmer creates a warmer with its own client so warming
// traffic never contends for the catalog client's connection pool.
func NewHTTPWarmer() *HTTPWarmer {
	return &HTTPWarmer{
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client (used by tests).
func (w *HTTPWarmer) SetHTTPClient(httpc *http.Client) {
	w.httpc = httpc
}

// Warm fetches url and discards the body.
func (w *HTTPWarmer) Warm(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := w.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("warm %s: status %d", url, resp.StatusCode)
	}
	return nil
}
