package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"car-archive/internal/logging"
	"car-archive/internal/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// Page responses are cached briefly so scroll-driven lookahead and the
// grid itself don't hammer the catalog for the same page. Mutations
// drop every cached page for the affected car.
const (
	pageCacheTTL     = 30 * time.Second
	pageCacheSweep   = time.Minute
	requestTimeout   = 15 * time.Second
	maxErrorBodySize = 2048
)

// StatusError is an HTTP-level catalog failure.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("catalog %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("catalog %s: status %d", e.Op, e.Status)
}

// Client talks to the image catalog service. It owns the page cache and
// retry policy; callers treat every successful mutation as the new
// source of truth and refetch rather than patching local state.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *gocache.Cache
	retry   RetryConfig
}

// New creates a catalog client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: requestTimeout},
		cache:   gocache.New(pageCacheTTL, pageCacheSweep),
		retry:   DefaultRetryConfig(),
	}
}

// SetHTTPClient replaces the underlying HTTP client (used by tests).
func (c *Client) SetHTTPClient(httpc *http.Client) {
	c.httpc = httpc
}

// SetRetryConfig replaces the retry policy.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.retry = cfg
}

// SetCacheTTL replaces the page cache with one using the given TTL.
// Zero or negative values fall back to the default.
func (c *Client) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = pageCacheTTL
	}
	c.cache = gocache.New(ttl, pageCacheSweep)
}

func (c *Client) imagesURL(carID string) string {
	return fmt.Sprintf("%s/api/cars/%s/images", c.baseURL, carID)
}

// FetchPage returns one page of a car's images. Responses are cached
// per exact query for a short TTL.
func (c *Client) FetchPage(ctx context.Context, carID string, q Query) (*PageResult, error) {
	key := q.cacheKey(carID)
	if cached, ok := c.cache.Get(key); ok {
		logging.Debug("catalog: page cache hit for %s", key)
		metrics.CatalogCacheHits.Inc()
		return cached.(*PageResult), nil
	}

	reqURL := c.imagesURL(carID) + "?" + q.values().Encode()

	var result *PageResult
	err := c.do(ctx, "fetch_page", func() (int, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return 0, "", err
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return 0, "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, readErrorBody(resp.Body), nil
		}

		var page PageResult
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return 0, "", fmt.Errorf("decode page response: %w", err)
		}
		result = &page
		return http.StatusOK, "", nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, result, gocache.DefaultExpiration)
	return result, nil
}

// DeleteImages removes images from the catalog. deleteFromStorage
// selects the irreversible tier: the catalog record AND the underlying
// asset. With it false the asset stays retrievable at the storage layer.
// Partial failures come back in the result, not as an error.
func (c *Client) DeleteImages(ctx context.Context, carID string, ids []string, deleteFromStorage bool) (*DeleteResult, error) {
	if len(ids) == 0 {
		return &DeleteResult{}, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"imageIds":          ids,
		"deleteFromStorage": deleteFromStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("encode delete request: %w", err)
	}

	var result *DeleteResult
	err = c.do(ctx, "delete_images", func() (int, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.imagesURL(carID), bytes.NewReader(body))
		if err != nil {
			return 0, "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return 0, "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, readErrorBody(resp.Body), nil
		}

		var res DeleteResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return 0, "", fmt.Errorf("decode delete response: %w", err)
		}
		result = &res
		return http.StatusOK, "", nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidateCar(carID)
	logging.Info("catalog: deleted %d/%d images for car %s (storage=%v)",
		len(result.Deleted), len(ids), carID, deleteFromStorage)
	return result, nil
}

// SetPrimary marks one image as the car's primary image. The catalog
// clears the flag on all siblings; the client never tries to enforce
// that invariant locally.
func (c *Client) SetPrimary(ctx context.Context, carID, imageID string) error {
	url := fmt.Sprintf("%s/%s/primary", c.imagesURL(carID), imageID)
	if err := c.patch(ctx, "set_primary", url, nil); err != nil {
		return err
	}
	c.invalidateCar(carID)
	return nil
}

// UpdateMetadata replaces one image's metadata map.
func (c *Client) UpdateMetadata(ctx context.Context, carID, imageID string, md Metadata) error {
	body, err := json.Marshal(map[string]interface{}{"metadata": md})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	url := fmt.Sprintf("%s/%s/metadata", c.imagesURL(carID), imageID)
	if err := c.patch(ctx, "update_metadata", url, body); err != nil {
		return err
	}
	c.invalidateCar(carID)
	return nil
}

// Reanalyze asks the catalog to re-run image analysis with the given
// prompt and model.
func (c *Client) Reanalyze(ctx context.Context, carID, imageID, prompt, model string) error {
	body, err := json.Marshal(map[string]string{
		"prompt": prompt,
		"model":  model,
	})
	if err != nil {
		return fmt.Errorf("encode reanalyze request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/reanalyze", c.imagesURL(carID), imageID)
	err = c.do(ctx, "reanalyze", func() (int, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return 0, "", err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.send(req, "reanalyze")
	})
	if err != nil {
		return err
	}

	c.invalidateCar(carID)
	return nil
}

func (c *Client) patch(ctx context.Context, op, url string, body []byte) error {
	return c.do(ctx, op, func() (int, string, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, reader)
		if err != nil {
			return 0, "", err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.send(req, op)
	})
}

// send executes a request where only the status matters.
func (c *Client) send(req *http.Request, op string) (int, string, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return resp.StatusCode, readErrorBody(resp.Body), nil
	}
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return http.StatusOK, "", nil
}

// readErrorBody captures a bounded snippet of a failed response body
// and drains the remainder so the connection can be reused.
func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	_, _ = io.Copy(io.Discard, r)
	return strings.TrimSpace(string(b))
}

// do wraps an operation with retry and metrics.
func (c *Client) do(ctx context.Context, op string, fn func() (int, string, error)) error {
	start := time.Now()
	err := withRetry(ctx, c.retry, op, fn)
	metrics.CatalogRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(op, status).Inc()

	if err != nil {
		logging.Error("catalog: %s failed: %v", op, err)
	}
	return err
}

// invalidateCar drops every cached page for one car.
func (c *Client) invalidateCar(carID string) {
	prefix := "page:" + carID + ":"
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

// InvalidateCar is the exported form, used after out-of-band mutations.
func (c *Client) InvalidateCar(carID string) {
	c.invalidateCar(carID)
}
