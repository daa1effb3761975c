package search

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"
	googleMaxNum          = 10
)

// GoogleClient queries the Programmable Search JSON API. Unlike the other
// providers the key is sent as a query parameter, next to the engine id (cx).
type GoogleClient struct {
	apiClient
}

func newGoogleClient(cfg ProviderConfig, httpClient *http.Client) *GoogleClient {
	return &GoogleClient{newAPIClient(Google, cfg, httpClient, defaultGoogleEndpoint)}
}

func (c *GoogleClient) Name() string {
	return "Google"
}

func (c *GoogleClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	cx := c.params["cx"]
	if cx == "" {
		return nil, &AuthError{Provider: c.provider, Message: "search engine id (cx) is not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create google request: %w", err)
	}

	q := req.URL.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", cx)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(min(limit, googleMaxNum)))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}
