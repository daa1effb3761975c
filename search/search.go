package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	httpMaxIdleConns        = 100
	httpMaxIdleConnsPerHost = 100
	httpIdleConnTimeout     = 90 * time.Second
	httpClientTimeout       = 30 * time.Second
)

// ProviderType identifies a search provider
type ProviderType string

const (
	Bing         ProviderType = "bing"
	Google       ProviderType = "google"
	GoogleSerper ProviderType = "googleserper"
	Brave        ProviderType = "brave"
	DuckDuckGo   ProviderType = "duckduckgo"
	Exa          ProviderType = "exa"
	Travily      ProviderType = "travily"
	Baidu        ProviderType = "baidu"
)

const customPrefix = "custom:"

// Custom returns the provider type for a user-defined engine
func Custom(name string) ProviderType {
	return ProviderType(customPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// IsCustom reports whether p was created with Custom
func (p ProviderType) IsCustom() bool {
	return strings.HasPrefix(string(p), customPrefix)
}

func (p ProviderType) String() string {
	return string(p)
}

var providerAliases = map[string]ProviderType{
	"bing":          Bing,
	"google":        Google,
	"googleserper":  GoogleSerper,
	"google_serper": GoogleSerper,
	"serper":        GoogleSerper,
	"brave":         Brave,
	"duckduckgo":    DuckDuckGo,
	"ddg":           DuckDuckGo,
	"exa":           Exa,
	"travily":       Travily,
	"tavily":        Travily,
	"baidu":         Baidu,
}

// ParseProviderType resolves an engine name from config or the command line.
// Names prefixed with "custom:" always resolve to a custom provider.
func ParseProviderType(name string) (ProviderType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(key, customPrefix) && len(key) > len(customPrefix) {
		return Custom(key[len(customPrefix):]), nil
	}
	if p, ok := providerAliases[key]; ok {
		return p, nil
	}
	return "", &ValidationError{Field: "engine", Message: fmt.Sprintf("unknown search engine %q", name)}
}

// Mode selects how results are acquired from a provider
type Mode string

const (
	ModeWeb Mode = "webquery"
	ModeAPI Mode = "apiquery"
)

// ParseMode accepts both the long and short spellings of a mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "webquery", "web", "web_query":
		return ModeWeb, nil
	case "apiquery", "api", "api_query":
		return ModeAPI, nil
	}
	return "", &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown search mode %q", s)}
}

// Query is a single search request
type Query struct {
	Text  string `json:"query"`
	Limit int    `json:"limit"`
	Mode  Mode   `json:"mode"`
}

// Validate checks the caller-supplied fields of a query
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Field: "query", Message: "query text must not be empty"}
	}
	if q.Limit < 1 {
		return &ValidationError{Field: "limit", Message: "limit must be at least 1"}
	}
	if q.Mode != ModeWeb && q.Mode != ModeAPI {
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown search mode %q", q.Mode)}
	}
	return nil
}

// Result represents a single search result
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// ProviderConfig holds per-provider settings. It is not modified after the
// engine is built.
type ProviderConfig struct {
	APIKey       string
	QueryPattern string
	Endpoint     string
	Proxy        string
	Params       map[string]string
}

// HasKey reports whether an API key is configured
func (c ProviderConfig) HasKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

var defaultQueryPatterns = map[ProviderType]string{
	Bing:       "https://www.bing.com/search?q={query}",
	Google:     "https://www.google.com/search?q={query}",
	DuckDuckGo: "https://html.duckduckgo.com/html/?q={query}",
	Brave:      "https://search.brave.com/search?q={query}&source=web",
	Baidu:      "https://www.baidu.com/s?wd={query}",
	Exa:        "https://exa.ai/search?q={query}",
}

// DefaultQueryPattern returns the results-page template for p, or "" when the
// provider has no web interface.
func DefaultQueryPattern(p ProviderType) string {
	return defaultQueryPatterns[p]
}

func (c ProviderConfig) queryPattern(p ProviderType) string {
	if c.QueryPattern != "" {
		return c.QueryPattern
	}
	return DefaultQueryPattern(p)
}

// HasQueryPattern reports whether a results-page URL can be built for p
func (c ProviderConfig) HasQueryPattern(p ProviderType) bool {
	return strings.Contains(c.queryPattern(p), "{query}")
}

// QueryURL substitutes the escaped query text into the provider's web pattern
func (c ProviderConfig) QueryURL(p ProviderType, text string) (string, error) {
	pattern := c.queryPattern(p)
	if !strings.Contains(pattern, "{query}") {
		return "", &ValidationError{
			Field:   "query_pattern",
			Message: fmt.Sprintf("pattern for %s must contain {query}", p),
		}
	}
	return strings.ReplaceAll(pattern, "{query}", url.QueryEscape(text)), nil
}

// Client performs an authenticated API request for one provider and returns
// the raw response body.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]byte, error)
	Provider() ProviderType
	Name() string
}

// NewHTTPClient creates the pooled HTTP client shared by API clients. An empty
// proxy falls back to the proxy settings in the environment.
func NewHTTPClient(proxy string) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConnsPerHost,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, &ValidationError{Field: "proxy", Message: fmt.Sprintf("invalid proxy URL %q", proxy)}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   httpClientTimeout,
	}, nil
}

// NewClient creates the API client for p
func NewClient(p ProviderType, cfg ProviderConfig, httpClient *http.Client) (Client, error) {
	switch p {
	case Brave:
		return newBraveClient(cfg, httpClient), nil
	case Exa:
		return newExaClient(cfg, httpClient), nil
	case Travily:
		return newTravilyClient(cfg, httpClient), nil
	case GoogleSerper:
		return newSerperClient(cfg, httpClient), nil
	case Google:
		return newGoogleClient(cfg, httpClient), nil
	case Baidu:
		return newBaiduClient(cfg, httpClient), nil
	case DuckDuckGo:
		return newDuckDuckGoClient(cfg, httpClient), nil
	}
	return nil, &UnsupportedModeError{Provider: p, Mode: ModeAPI}
}

// NewClients builds an API client for every registry provider that supports
// API mode. Providers sharing a proxy share one connection pool.
func NewClients(reg *Registry, cfgs map[ProviderType]ProviderConfig) (map[ProviderType]Client, error) {
	pools := make(map[string]*http.Client)
	clients := make(map[ProviderType]Client)

	for _, p := range reg.Providers() {
		if !reg.Capability(p).SupportsAPI {
			continue
		}
		cfg := cfgs[p]
		hc, ok := pools[cfg.Proxy]
		if !ok {
			var err error
			hc, err = NewHTTPClient(cfg.Proxy)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			pools[cfg.Proxy] = hc
		}
		c, err := NewClient(p, cfg, hc)
		if err != nil {
			return nil, err
		}
		clients[p] = c
	}
	return clients, nil
}

func sortedProviders(m map[ProviderType]Capability) []ProviderType {
	out := make([]ProviderType, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
