// Package builderio is the HTTP client for the remote visual CMS: its admin API (model catalog),
// its content API (single entries and paginated listings) and raw asset downloads.
package builderio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultCDNURL is the public content API host.
	DefaultCDNURL = "https://cdn.builder.io"
	// DefaultAdminURL is the admin API host.
	DefaultAdminURL = "https://builder.io"

	defaultTimeout             = 30 * time.Second
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	maxErrorBodyBytes          = 4 << 10
)

// Config configures a Client.
type Config struct {
	APIKey     string
	PrivateKey string
	CDNURL     string
	AdminURL   string
	// Timeout bounds each request. Zero uses the default.
	Timeout time.Duration
}

// Client talks to the remote content source. It performs no retries.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client with pooled connections.
func NewClient(cfg Config) *Client {
	if cfg.CDNURL == "" {
		cfg.CDNURL = DefaultCDNURL
	}
	if cfg.AdminURL == "" {
		cfg.AdminURL = DefaultAdminURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.CDNURL = strings.TrimRight(cfg.CDNURL, "/")
	cfg.AdminURL = strings.TrimRight(cfg.AdminURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	transport.IdleConnTimeout = defaultIdleConnTimeout

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}
}

// APIKey returns the public API key used for content requests.
func (c *Client) APIKey() string {
	return c.cfg.APIKey
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, redactAPIKey(req.URL.String()), err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        redactAPIKey(req.URL.String()),
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
