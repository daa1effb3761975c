package search

import (
	"context"
	"net/http"
)

const (
	defaultBaiduEndpoint = "https://api.baidu.com/search"
	baiduMaxLimit        = 50
)

// BaiduClient queries the Baidu search API with a bearer token
type BaiduClient struct {
	apiClient
}

func newBaiduClient(cfg ProviderConfig, httpClient *http.Client) *BaiduClient {
	return &BaiduClient{newAPIClient(Baidu, cfg, httpClient, defaultBaiduEndpoint)}
}

func (c *BaiduClient) Name() string {
	return "Baidu"
}

type baiduRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (c *BaiduClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, baiduRequest{Query: query, Limit: min(limit, baiduMaxLimit)})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req)
}
