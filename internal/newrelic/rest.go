package newrelic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// requestTimeout bounds every outbound New Relic call so a slow API can
// never hold up a Slack render indefinitely.
const requestTimeout = 3 * time.Second

// maxViolations limits how many alert violations one dashboard shows.
const maxViolations = 10

// Observer receives timing for outbound API calls. *metrics.Metrics
// satisfies it; a nil Observer disables instrumentation.
type Observer interface {
	ObserveAPICall(api string, seconds float64, ok bool)
}

// RestClient talks to the New Relic REST v2 API using a read-only API key
// sent in the X-Api-Key header.
type RestClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

func NewRestClient(baseURL, apiKey string, logger *slog.Logger, observer Observer) *RestClient {
	return &RestClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		observer:   observer,
	}
}

// ApplicationsList returns every application visible to the API key.
func (c *RestClient) ApplicationsList(ctx context.Context) ([]Application, error) {
	var payload struct {
		Applications []Application `json:"applications"`
	}
	if err := c.get(ctx, "/applications.json", &payload); err != nil {
		return nil, err
	}
	return payload.Applications, nil
}

// ApplicationHostsList returns the hosts of one application.
func (c *RestClient) ApplicationHostsList(ctx context.Context, applicationID int64) ([]Host, error) {
	var payload struct {
		Hosts []Host `json:"application_hosts"`
	}
	uri := fmt.Sprintf("/applications/%d/hosts.json", applicationID)
	if err := c.get(ctx, uri, &payload); err != nil {
		return nil, err
	}
	return payload.Hosts, nil
}

// AlertsViolationsList returns open violations for one application. The API
// endpoint is account-wide, so the result is filtered here to violations
// whose entity is the given application, newest first, capped at
// maxViolations.
func (c *RestClient) AlertsViolationsList(ctx context.Context, applicationID int64) ([]Violation, error) {
	var payload struct {
		Violations []Violation `json:"violations"`
	}
	if err := c.get(ctx, "/alerts_violations.json", &payload); err != nil {
		return nil, err
	}
	filtered := make([]Violation, 0, maxViolations)
	for _, v := range payload.Violations {
		if v.Entity.Type != "Application" || v.Entity.ID != applicationID {
			continue
		}
		filtered = append(filtered, v)
		if len(filtered) == maxViolations {
			break
		}
	}
	return filtered, nil
}

func (c *RestClient) get(ctx context.Context, uri string, out any) error {
	start := time.Now()
	err := c.doGet(ctx, uri, out)
	if c.observer != nil {
		c.observer.ObserveAPICall("rest"+uri, time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		c.logger.Error("New Relic REST API call failed", "uri", uri, "error", err)
	}
	return err
}

func (c *RestClient) doGet(ctx context.Context, uri string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+uri, nil)
	if err != nil {
		return fmt.Errorf("prepare request %s: %w", uri, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("call %s: unexpected status %d", uri, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s: %w", uri, err)
	}
	return nil
}
