package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultDuckDuckGoEndpoint = "https://api.duckduckgo.com/?q={query}&format=json&no_html=1&skip_disambig=1"

// DuckDuckGoClient calls the keyless Instant Answer API. It often answers
// with no topics at all, which is a valid empty result set.
type DuckDuckGoClient struct {
	apiClient
}

func newDuckDuckGoClient(cfg ProviderConfig, httpClient *http.Client) *DuckDuckGoClient {
	return &DuckDuckGoClient{newAPIClient(DuckDuckGo, cfg, httpClient, defaultDuckDuckGoEndpoint)}
}

func (c *DuckDuckGoClient) Name() string {
	return "DuckDuckGo"
}

// Search ignores limit on the wire; the parser truncates.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, _ int) ([]byte, error) {
	target := c.endpoint
	if strings.Contains(target, "{query}") {
		target = strings.ReplaceAll(target, "{query}", url.QueryEscape(query))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create duckduckgo request: %w", err)
	}
	if !strings.Contains(c.endpoint, "{query}") {
		q := req.URL.Query()
		q.Set("q", query)
		q.Set("format", "json")
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}
