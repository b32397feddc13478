// Package unipile wraps the Unipile hosted-auth API used to connect
// LinkedIn accounts.
package unipile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// linkTTL is how long a hosted auth link stays valid.
const linkTTL = 30 * time.Minute

// Client talks to a Unipile instance identified by its DSN
// (e.g. "api1.unipile.com:13111").
type Client struct {
	dsn        string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Unipile client. dsn and apiKey come from configuration.
func New(dsn, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		dsn:     dsn,
		apiKey:  apiKey,
		baseURL: fmt.Sprintf("https://%s", dsn),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Configured reports whether the client has credentials to work with.
func (c *Client) Configured() bool {
	return c.dsn != "" && c.apiKey != ""
}

type linkRequest struct {
	Type               string   `json:"type"`
	APIURL             string   `json:"api_url"`
	Providers          []string `json:"providers"`
	ExpiresOn          string   `json:"expiresOn"`
	SuccessRedirectURL string   `json:"success_redirect_url"`
	FailureRedirectURL string   `json:"failure_redirect_url"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// CreateHostedLink requests a hosted auth URL the user is redirected to in
// order to connect their LinkedIn account. The link expires after 30 minutes.
func (c *Client) CreateHostedLink(ctx context.Context, successURL, failureURL string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("unipile credentials not configured")
	}

	payload := linkRequest{
		Type:               "create",
		APIURL:             fmt.Sprintf("https://%s", c.dsn),
		Providers:          []string{"LINKEDIN"},
		ExpiresOn:          time.Now().UTC().Add(linkTTL).Format(time.RFC3339),
		SuccessRedirectURL: successURL,
		FailureRedirectURL: failureURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal link request: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/hosted/accounts/link"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("unipile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("unipile link request failed", "status", resp.StatusCode, "body", string(raw))
		return "", fmt.Errorf("unipile returned status %d", resp.StatusCode)
	}

	var link linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("decode link response: %w", err)
	}
	if link.URL == "" {
		return "", fmt.Errorf("unipile returned no auth url")
	}

	return link.URL, nil
}
