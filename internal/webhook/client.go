// Package webhook delivers campaign-trigger payloads to externally
// configured automation endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds every webhook call. There is no early cancellation
// beyond this deadline and no retry.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout means the endpoint did not answer within the deadline.
	ErrTimeout = errors.New("webhook request timed out")
	// ErrUnreachable means no HTTP response was received at all.
	ErrUnreachable = errors.New("webhook unreachable")
)

// StatusError is returned when the endpoint answered with anything other
// than 200 or 201.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.Code)
}

// Client posts JSON payloads to webhook URLs.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a webhook client with the default 30 second timeout.
func NewClient(logger *slog.Logger) *Client {
	return NewClientWithTimeout(logger, DefaultTimeout)
}

// NewClientWithTimeout creates a webhook client with a custom timeout.
func NewClientWithTimeout(logger *slog.Logger, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Post sends payload as a JSON body to rawURL. Success is a 200 or 201
// response; everything else maps onto ErrTimeout, ErrUnreachable or a
// *StatusError so callers can surface distinct messages.
func (c *Client) Post(ctx context.Context, rawURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return ErrTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		c.logger.Warn("webhook dispatch failed", "url", rawURL, "error", err)
		return ErrUnreachable
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{Code: resp.StatusCode}
	}

	return nil
}
