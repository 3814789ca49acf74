// Package textsmoother is an HTTP client for the answer rewriting service.
package textsmoother

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTimeout = 10 * time.Second

// Config configures the smoother client. TokenURL enables OAuth2 client
// credentials; without it requests are unauthenticated.
type Config struct {
	Endpoint     string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

// ErrNotConfigured is returned by New when no endpoint is set.
var ErrNotConfigured = errors.New("text smoother endpoint not configured")

// Client calls the smoother service.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

type smoothRequest struct {
	Text string `json:"text"`
}

type smoothResponse struct {
	Text string `json:"text"`
}

// New creates a Client. ctx bounds token fetches for the client's lifetime.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := &http.Client{}
	if cfg.TokenURL != "" {
		credentials := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = credentials.Client(ctx)
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{endpoint: cfg.Endpoint, http: httpClient, logger: logger}, nil
}

// Smooth returns the rewritten text.
func (c *Client) Smooth(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(smoothRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode smoother request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build smoother request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("smoother request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("smoother returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out smoothResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode smoother response: %w", err)
	}

	c.logger.DebugContext(ctx, "Answer smoothed",
		attr.ExtractCorrelationID(ctx),
		attr.Duration("duration", time.Since(start)),
	)
	return out.Text, nil
}
