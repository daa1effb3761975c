package search

import (
	"context"
	"net/http"
)

const (
	defaultExaEndpoint = "https://api.exa.ai/search"
	exaMaxResults      = 100
)

// ExaClient handles searches using Exa AI
type ExaClient struct {
	apiClient
}

func newExaClient(cfg ProviderConfig, httpClient *http.Client) *ExaClient {
	return &ExaClient{newAPIClient(Exa, cfg, httpClient, defaultExaEndpoint)}
}

func (c *ExaClient) Name() string {
	return "Exa"
}

// exaRequest represents the Exa API request body
type exaRequest struct {
	Query      string      `json:"query"`
	NumResults int         `json:"numResults"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text bool `json:"text"`
}

// Search performs an Exa search
func (c *ExaClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, exaRequest{
		Query:      query,
		NumResults: min(limit, exaMaxResults),
		Contents:   exaContents{Text: true},
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	return c.do(req)
}
