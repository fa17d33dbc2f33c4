package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/nearby/internal/cache"
	"github.com/Ayash-Bera/nearby/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// CachePrefix namespaces text-search payloads in a shared cache.
const CachePrefix = "places:"

var ErrMissingAPIKey = errors.New("places API key is not configured")

// UpstreamError reports a text-search response whose status was neither
// OK nor ZERO_RESULTS.
type UpstreamError struct {
	Status  string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places search returned %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("places search returned %s", e.Status)
}

// Client calls the places text-search endpoint with the server key.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Store[*TextSearchResponse]
	logger     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outbound requests per second. Zero or less disables it.
func WithRateLimit(qps float64) Option {
	return func(c *Client) {
		if qps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(qps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithHTTPClient replaces the default client built from the timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new places client.
func NewClient(baseURL, apiKey string, timeout time.Duration, store cache.Store[*TextSearchResponse], logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey is the exact (query, lat, lng, radius) tuple, unrounded.
func CacheKey(req TextSearchRequest) string {
	var lat, lng, radius string
	if req.Location != nil {
		lat = formatFloat(req.Location.Lat)
		lng = formatFloat(req.Location.Lng)
	}
	if req.RadiusMeters != nil {
		radius = formatFloat(*req.RadiusMeters)
	}
	return strings.Join([]string{req.Query, lat, lng, radius}, "|")
}

// TextSearch returns the upstream payload for req, from cache when possible.
// Failures are returned as errors and never cached.
func (c *Client) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	key := CacheKey(req)
	if cached, ok := c.cache.Get(ctx, key); ok && cached != nil {
		metrics.PlacesCache.WithLabelValues("hit").Inc()
		c.logger.WithField("query", req.Query).Debug("Places results served from cache")
		return cached, nil
	}
	metrics.PlacesCache.WithLabelValues("miss").Inc()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.UpstreamFailures.WithLabelValues("places", "throttled").Inc()
			return nil, fmt.Errorf("places rate limit wait: %w", err)
		}
	}

	resp, err := c.fetch(ctx, req)
	if err != nil {
		status := "error"
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			status = upstreamErr.Status
		} else if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.UpstreamFailures.WithLabelValues("places", status).Inc()
		return nil, err
	}

	if err := c.cache.Set(ctx, key, resp); err != nil {
		c.logger.WithError(err).Warn("Failed to cache places results")
	}

	return resp, nil
}

func (c *Client) fetch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("key", c.apiKey)
	if req.Location != nil && req.RadiusMeters != nil {
		params.Set("location", formatFloat(req.Location.Lat)+","+formatFloat(req.Location.Lng))
		params.Set("radius", formatFloat(*req.RadiusMeters))
	}

	endpoint := c.baseURL + "/textsearch/json?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"query":      req.Query,
		"has_bias":   params.Has("location"),
		"timeout_ms": c.timeout.Milliseconds(),
	}).Debug("Making places text search request")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   httpResp.StatusCode,
		"response_size": len(body),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}).Debug("Places response received")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: "HTTP_" + strconv.Itoa(httpResp.StatusCode)}
	}

	var result TextSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if result.Status != StatusOK && result.Status != StatusZeroResults {
		return nil, &UpstreamError{Status: result.Status, Message: result.ErrorMessage}
	}

	return &result, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
