// Package doctypes fetches the document type taxonomy published next to the
// corpus. The body is passed through to clients unchanged.
package doctypes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// DefaultMaxBytes bounds the taxonomy body.
const DefaultMaxBytes = 4 << 20

// Config holds the taxonomy endpoint settings.
type Config struct {
	URL      string
	Timeout  time.Duration
	MaxBytes int64
	Logger   *zap.Logger
	// RequestsTotal is a counter vec with label "status" ("ok"/"error").
	RequestsTotal *prometheus.CounterVec
}

// Client fetches the taxonomy document.
type Client struct {
	url      string
	http     *http.Client
	maxBytes int64
	logger   *zap.Logger
	requests *prometheus.CounterVec
}

// NewClient creates a taxonomy client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:      cfg.URL,
		http:     &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
		requests: cfg.RequestsTotal,
	}
}

// Fetch downloads the taxonomy. Any non-2xx status, transport failure or
// oversized body is reported as domain.ErrUpstream.
func (c *Client) Fetch(ctx context.Context) (domain.Taxonomy, error) {
	if c.url == "" {
		return domain.Taxonomy{}, fmt.Errorf("%w: document type URL is not configured", domain.ErrUpstream)
	}

	start := time.Now()
	doc, err := c.fetch(ctx)
	duration := time.Since(start)

	if err != nil {
		c.inc("error")
		c.logger.Error("Document type fetch failed",
			zap.String("url", c.url),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Taxonomy{}, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	c.inc("ok")
	c.logger.Debug("Document types fetched",
		zap.String("url", c.url),
		zap.Int("bytes", len(doc.Body)),
		zap.Duration("duration", duration),
	)
	return doc, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Taxonomy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Taxonomy{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return domain.Taxonomy{}, fmt.Errorf("response exceeds %d bytes", c.maxBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	return domain.Taxonomy{ContentType: ct, Body: body}, nil
}

func (c *Client) inc(status string) {
	if c.requests != nil {
		c.requests.WithLabelValues(status).Inc()
	}
}
