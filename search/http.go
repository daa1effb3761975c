package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxResponseBodySize caps how much of a provider response is read
const maxResponseBodySize = 4 << 20

// maxErrorMessageLength bounds provider error text copied into AuthError
const maxErrorMessageLength = 200

// apiClient holds what every provider client needs
type apiClient struct {
	provider   ProviderType
	apiKey     string
	endpoint   string
	params     map[string]string
	httpClient *http.Client
}

func newAPIClient(p ProviderType, cfg ProviderConfig, httpClient *http.Client, defaultEndpoint string) apiClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return apiClient{
		provider:   p,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		endpoint:   endpoint,
		params:     cfg.Params,
		httpClient: httpClient,
	}
}

func (c *apiClient) Provider() ProviderType {
	return c.provider
}

func (c *apiClient) requireKey() error {
	if c.apiKey == "" {
		return &AuthError{Provider: c.provider, Message: "API key is not configured"}
	}
	return nil
}

func (c *apiClient) newJSONRequest(ctx context.Context, body any) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req and classifies the failure modes every provider shares
func (c *apiClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &TimeoutError{Provider: c.provider, Err: ctxErr}
		}
		return nil, &NetworkError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, &NetworkError{Provider: c.provider, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(body)), maxErrorMessageLength),
		}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, &NetworkError{Provider: c.provider, StatusCode: resp.StatusCode}
	}

	return body, nil
}

// truncate keeps the first n runes of s
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
