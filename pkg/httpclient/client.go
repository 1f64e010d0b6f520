// Package httpclient is the outbound HTTP client used to reach the inventory
// backend: pooled transport, per-call contexts, a circuit breaker and
// prometheus metrics. Requests are never retried automatically.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns sensible defaults for the backend client.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 32,
	}
}

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests sent to the inventory backend, by method and status code",
		},
		[]string{"service", "method", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of requests sent to the inventory backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// Client wraps http.Client with connection pooling and metrics.
type Client struct {
	httpClient *http.Client
	name       string
	logger     *slog.Logger
}

// New creates a client labelled name in metrics and logs.
func New(name string, cfg Config, logger *slog.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		name:   name,
		logger: logger,
	}
}

// Name returns the service label of the client.
func (c *Client) Name() string {
	return c.name
}

// Do executes req once under ctx.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(c.name, req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(c.name, req.Method, "error").Inc()
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	requestsTotal.WithLabelValues(c.name, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// NewRequest builds a request bound to ctx, setting a JSON content type when
// a body is present.
func NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
