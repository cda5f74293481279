package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIBase = "https://slack.com/api"

// Client calls the Slack Web API views methods with a bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(token string, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(defaultAPIBase, token, logger)
}

// NewClientWithBaseURL exists so tests can point the client at a local
// server.
func NewClientWithBaseURL(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// ViewsPublish publishes a Home tab for a user.
// https://api.slack.com/methods/views.publish
func (c *Client) ViewsPublish(ctx context.Context, userID string, view *View) error {
	return c.call(ctx, "views.publish", map[string]any{
		"user_id": userID,
		"view":    view,
	})
}

// ViewsOpen opens a new modal against an interaction trigger.
// https://api.slack.com/methods/views.open
func (c *Client) ViewsOpen(ctx context.Context, triggerID string, view *View) error {
	return c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
}

// ViewsUpdate replaces an open modal in place.
// https://api.slack.com/methods/views.update
func (c *Client) ViewsUpdate(ctx context.Context, viewID string, view *View) error {
	return c.call(ctx, "views.update", map[string]any{
		"view_id": viewID,
		"view":    view,
	})
}

func (c *Client) call(ctx context.Context, method string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("prepare %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", method, resp.StatusCode)
	}

	var apiResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("call %s: slack error %q", method, apiResp.Error)
	}
	c.logger.Debug("Slack views API call succeeded", "method", method)
	return nil
}
