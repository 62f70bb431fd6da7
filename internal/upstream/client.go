// Package upstream pulls raw dashboard records from the data source API.
// Responses are decoded as loose JSON objects; normalization happens in the
// pipeline, not here.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
)

const (
	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// TokenSource provides the bearer token for upstream requests. A nil
// source sends unauthenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client fetches raw records from the upstream API. Transient failures are
// retried with a constant backoff before the fetch is reported as failed.
type Client struct {
	baseURL string
	entryID string
	http    *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// NewClient creates an upstream client from configuration.
func NewClient(cfg config.UpstreamConfig, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		entryID: cfg.EntryID,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		log:     log,
	}
}

// Enabled reports whether the client has an upstream to pull from.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// FetchAccounts pulls the raw account records.
func (c *Client) FetchAccounts(ctx context.Context) ([]map[string]any, error) {
	if !c.Enabled() {
		return nil, apperrors.ErrUpstreamUnavailable
	}
	records, err := c.fetch(ctx, "/api/accounts")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToFetchAccounts, err)
	}
	return records, nil
}

// FetchPortfolios pulls the raw portfolio records.
func (c *Client) FetchPortfolios(ctx context.Context) ([]map[string]any, error) {
	if !c.Enabled() {
		return nil, apperrors.ErrUpstreamUnavailable
	}
	records, err := c.fetch(ctx, "/api/portfolios")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToFetchPortfolios, err)
	}
	return records, nil
}

// FetchPositions pulls the raw position detail records for one portfolio.
func (c *Client) FetchPositions(ctx context.Context, portfolioUUID string) ([]map[string]any, error) {
	if !c.Enabled() {
		return nil, apperrors.ErrUpstreamUnavailable
	}
	records, err := c.fetch(ctx, "/api/portfolios/"+url.PathEscape(portfolioUUID)+"/positions")
	if err != nil {
		return nil, fmt.Errorf("%w: portfolio %s: %v", apperrors.ErrFailedToFetchPositions, portfolioUUID, err)
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]map[string]any, error) {
	var records []map[string]any
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewConstant(retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var attemptErr error
		records, attemptErr = c.request(ctx, path)
		return attemptErr
	})
	return records, err
}

// request performs one HTTP round trip. Network failures and 5xx responses
// are retryable; anything else fails the fetch immediately.
func (c *Client) request(ctx context.Context, path string) ([]map[string]any, error) {
	endpoint := c.baseURL + path
	if c.entryID != "" {
		endpoint += "?entry_id=" + url.QueryEscape(c.entryID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving upstream token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("upstream request failed, retrying")
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("upstream error, retrying")
		return nil, retry.RetryableError(fmt.Errorf("upstream returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding upstream response: %w", err)
	}
	return records, nil
}
