package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"unified-listings/config"
	"unified-listings/models"
	"unified-listings/utils"
)

var (
	// ErrRetriesExhausted is returned when transient failures outlast the retry budget.
	ErrRetriesExhausted = utils.ErrRetriesExhausted
	// ErrUpstreamStatus is returned for non-retryable HTTP error statuses.
	ErrUpstreamStatus = errors.New("upstream error status")
	// ErrBadPayload is returned when a response body is not a JSON object.
	ErrBadPayload = errors.New("malformed upstream payload")
)

const (
	networkBackoffCeiling   = 60 * time.Second
	rateLimitBackoffCeiling = 120 * time.Second
)

// Client performs JSON GET requests with retry on network failures and
// HTTP 429 responses.
type Client struct {
	http  *resty.Client
	retry *utils.RetryConfig
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration, retry *utils.RetryConfig) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		retry: retry,
	}
}

// GetJSON fetches url and decodes the response body as a JSON object.
// Numbers are kept as json.Number so integer fields survive exactly.
func (c *Client) GetJSON(ctx context.Context, url string, headers, params map[string]string) (models.RawListing, error) {
	var payload models.RawListing

	err := c.retry.Do(ctx, "GET "+url, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetQueryParams(params).
			Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &utils.RetryableError{
				Err:     fmt.Errorf("network error: %w", err),
				Ceiling: networkBackoffCeiling,
			}
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusTooManyRequests:
			return &utils.RetryableError{
				Err:        fmt.Errorf("rate limited: %s", resp.Status()),
				Multiplier: 2,
				Ceiling:    rateLimitBackoffCeiling,
			}
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: credentials rejected: %s", config.ErrConfig, resp.Status())
		case resp.IsError():
			return fmt.Errorf("%w: %s", ErrUpstreamStatus, resp.Status())
		}

		dec := json.NewDecoder(bytes.NewReader(resp.Body()))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		payload = models.RawListing(obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
