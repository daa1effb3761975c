package search

import (
	"context"
	"net/http"
)

const (
	defaultSerperEndpoint = "https://google.serper.dev/search"
	serperMaxNum          = 100
)

// SerperClient queries Google results through serper.dev
type SerperClient struct {
	apiClient
}

func newSerperClient(cfg ProviderConfig, httpClient *http.Client) *SerperClient {
	return &SerperClient{newAPIClient(GoogleSerper, cfg, httpClient, defaultSerperEndpoint)}
}

func (c *SerperClient) Name() string {
	return "GoogleSerper"
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, serperRequest{
		Q:   query,
		Num: min(limit, serperMaxNum),
		GL:  c.params["gl"],
		HL:  c.params["hl"],
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	return c.do(req)
}
