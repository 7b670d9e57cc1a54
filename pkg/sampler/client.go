// Package sampler is a client for the secondary sampling panel API,
// which reports how many ad requests the panel observed per channel.
package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/adlens/spend-cli/internal/resilience"
)

const defaultRatePerSec = 5

// Client reports panel-observed ad request counts.
type Client interface {
	RequestCounts(ctx context.Context, days int) (map[string]int64, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithRetry overrides the default retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a sampling panel client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("sampler", "request_counts")
	for _, o := range opts {
		o(c)
	}
	return c
}

type countsResponse struct {
	WindowDays int `json:"window_days"`
	Channels   []struct {
		Channel  string `json:"channel"`
		Requests int64  `json:"requests"`
	} `json:"channels"`
}

// RequestCounts returns per-channel raw ad request counts observed by
// the panel over the trailing window.
func (c *httpClient) RequestCounts(ctx context.Context, days int) (map[string]int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sampler: rate limit wait")
	}

	url := fmt.Sprintf("%s/v1/panel/requests?days=%d", c.baseURL, days)
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	var resp countsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "sampler: unmarshal response")
	}

	counts := make(map[string]int64, len(resp.Channels))
	for _, ch := range resp.Channels {
		counts[ch.Channel] = ch.Requests
	}
	return counts, nil
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sampler: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sampler: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sampler: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("sampler: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}
	return body, nil
}
