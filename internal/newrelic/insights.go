package newrelic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// InsightsClient runs NRQL queries against the Insights query API for one
// account, authenticated by a query key in the X-Query-Key header.
type InsightsClient struct {
	baseURL    string
	accountID  string
	queryKey   string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

func NewInsightsClient(baseURL, accountID, queryKey string, logger *slog.Logger, observer Observer) *InsightsClient {
	return &InsightsClient{
		baseURL:    baseURL,
		accountID:  accountID,
		queryKey:   queryKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		observer:   observer,
	}
}

// Query executes one NRQL query and decodes the response into the
// events/aggregate tagged result.
func (c *InsightsClient) Query(ctx context.Context, nrql string) (*QueryResult, error) {
	start := time.Now()
	result, err := c.run(ctx, nrql)
	if c.observer != nil {
		c.observer.ObserveAPICall("insights/query", time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		c.logger.Error("New Relic Insights API call failed", "error", err)
	}
	return result, err
}

func (c *InsightsClient) run(ctx context.Context, nrql string) (*QueryResult, error) {
	uri := fmt.Sprintf("%s/accounts/%s/query?nrql=%s", c.baseURL, c.accountID, url.QueryEscape(nrql))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("prepare query request: %w", err)
	}
	req.Header.Set("X-Query-Key", c.queryKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("run query: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	result, err := decodeQueryResult(payload.Results)
	if err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}
	return result, nil
}
