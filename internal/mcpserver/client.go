package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the configuration for connecting to the subledger API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// SubledgerClient is a pure HTTP client for the subledger API.
type SubledgerClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewSubledgerClient creates a new client for the subledger API.
func NewSubledgerClient(cfg Config) *SubledgerClient {
	return &SubledgerClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP GET to the API and returns the response body.
func (c *SubledgerClient) doRequest(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// ListPlans returns the plan catalog.
func (c *SubledgerClient) ListPlans(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, "/v1/plans")
}

// GetPlan returns one plan by id.
func (c *SubledgerClient) GetPlan(ctx context.Context, planID string) (json.RawMessage, error) {
	return c.doRequest(ctx, "/v1/plans/"+planID)
}

// GetEntitlement returns an organization's current entitlement.
func (c *SubledgerClient) GetEntitlement(ctx context.Context, orgID string) (json.RawMessage, error) {
	return c.doRequest(ctx, "/v1/organizations/"+orgID+"/entitlement")
}

// ListSubscriptions returns a user's subscription ledger entries.
func (c *SubledgerClient) ListSubscriptions(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.doRequest(ctx, "/v1/users/"+userID+"/subscriptions")
}
