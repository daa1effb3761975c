package search

import (
	"context"
	"net/http"
)

const (
	defaultTravilyEndpoint = "https://api.tavily.com/search"
	travilyMaxResults      = 20
)

// TravilyClient queries the Tavily search API. The key travels in the body.
type TravilyClient struct {
	apiClient
}

func newTravilyClient(cfg ProviderConfig, httpClient *http.Client) *TravilyClient {
	return &TravilyClient{newAPIClient(Travily, cfg, httpClient, defaultTravilyEndpoint)}
}

func (c *TravilyClient) Name() string {
	return "Travily"
}

type travilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
	IncludeImages     bool   `json:"include_images"`
}

func (c *TravilyClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	depth := c.params["search_depth"]
	if depth == "" {
		depth = "basic"
	}

	req, err := c.newJSONRequest(ctx, travilyRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: depth,
		MaxResults:  min(limit, travilyMaxResults),
	})
	if err != nil {
		return nil, err
	}

	return c.do(req)
}
