// Package trends is a client for the search-trend index API, which
// scores public search interest in a term on a 0-100 scale.
package trends

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/adlens/spend-cli/internal/resilience"
)

const defaultRatePerSec = 5

// Client reports search interest indexes for terms.
type Client interface {
	Interest(ctx context.Context, terms []string) (map[string]float64, error)
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

// NewClient creates a trend index client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("trends", "interest")
	for _, o := range opts {
		o(c)
	}
	return c
}

type interestResponse struct {
	Scores []struct {
		Term  string  `json:"term"`
		Index float64 `json:"index"`
	} `json:"scores"`
}

// Interest returns the 0-100 search interest index for each term. Terms
// the index has no data for are absent from the result.
func (c *httpClient) Interest(ctx context.Context, terms []string) (map[string]float64, error) {
	if len(terms) == 0 {
		return map[string]float64{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "trends: rate limit wait")
	}

	q := url.Values{}
	for _, term := range terms {
		q.Add("term", term)
	}
	reqURL := c.baseURL + "/v1/interest?" + q.Encode()

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	var resp interestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "trends: unmarshal response")
	}

	scores := make(map[string]float64, len(resp.Scores))
	for _, s := range resp.Scores {
		scores[s.Term] = s.Index
	}
	return scores, nil
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "trends: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "trends: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "trends: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("trends: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}
	return body, nil
}
