package filings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"npopulse/internal/infrastructure"
)

// Client fetches filing-history documents from the remote API and
// caches them on disk, one JSON file per EIN. Already-cached EINs are
// never re-fetched.
type Client struct {
	baseURL  string
	cacheDir string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit sets the request rate limit in requests per second
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithMetrics attaches fetch instrumentation
func WithMetrics(m *infrastructure.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a filings API client. The default rate limit of one
// request per second is respectful of the public API's throttle.
func NewClient(baseURL, cacheDir string, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:  baseURL,
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		logger:   logger.With(slog.String("component", "filings_client")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchResult summarizes a fetch batch
type FetchResult struct {
	Requested int
	Cached    int
	Fetched   int
	Failed    int
}

// FetchAll retrieves filing histories for every EIN, skipping those
// already cached. Individual failures are logged with the failing EIN
// and counted; they never abort the batch.
func (c *Client) FetchAll(ctx context.Context, eins []string) (FetchResult, error) {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return FetchResult{}, fmt.Errorf("create cache directory: %w", err)
	}

	result := FetchResult{Requested: len(eins)}

	for i, ein := range eins {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("fetch cancelled after %d/%d: %w", i, len(eins), ctx.Err())
		default:
		}

		cached, err := c.Fetch(ctx, ein)
		switch {
		case err != nil:
			result.Failed++
			c.logger.WarnContext(ctx, "failed to fetch filings",
				slog.String("ein", ein),
				slog.String("error", err.Error()),
			)
		case cached:
			result.Cached++
		default:
			result.Fetched++
		}

		if (i+1)%100 == 0 {
			c.logger.InfoContext(ctx, "fetch progress",
				slog.Int("completed", i+1),
				slog.Int("total", len(eins)),
			)
		}
	}

	c.logger.InfoContext(ctx, "fetch batch completed",
		slog.Int("requested", result.Requested),
		slog.Int("cached", result.Cached),
		slog.Int("fetched", result.Fetched),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

// Fetch retrieves one organization's filing history into the cache.
// Returns true when the document was already cached.
func (c *Client) Fetch(ctx context.Context, ein string) (bool, error) {
	cachePath := filepath.Join(c.cacheDir, ein+".json")
	if _, err := os.Stat(cachePath); err == nil {
		if c.metrics != nil {
			c.metrics.FetchCacheHits.Add(ctx, 1)
		}
		return true, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/organizations/%s.json", c.baseURL, ein)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.FetchRequests.Add(ctx, 1)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.FetchErrors.Add(ctx, 1)
		}
		return false, fmt.Errorf("fetch %s: %w", ein, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.metrics != nil {
			c.metrics.FetchErrors.Add(ctx, 1)
		}
		return false, fmt.Errorf("fetch %s: unexpected status %d", ein, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response for %s: %w", ein, err)
	}

	if err := os.WriteFile(cachePath, body, 0644); err != nil {
		return false, fmt.Errorf("cache document for %s: %w", ein, err)
	}

	return false, nil
}
