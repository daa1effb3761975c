package search

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"
	braveMaxCount        = 20
)

// BraveClient queries the Brave Search API
type BraveClient struct {
	apiClient
}

func newBraveClient(cfg ProviderConfig, httpClient *http.Client) *BraveClient {
	return &BraveClient{newAPIClient(Brave, cfg, httpClient, defaultBraveEndpoint)}
}

func (c *BraveClient) Name() string {
	return "Brave"
}

// Search performs a Brave web search. The key goes in X-Subscription-Token.
func (c *BraveClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create brave request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(min(limit, braveMaxCount)))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	return c.do(req)
}
