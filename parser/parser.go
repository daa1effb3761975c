// Package parser turns provider payloads into ranked search results.
//
// Every parser follows the same contract: find the repeating result unit,
// skip units that lack a title or a usable URL, stop once limit valid units
// have been collected, and number them from 1 in document order. A ParseError
// is returned only when the top-level result container is missing.
package parser

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tinfoilsh/websearch/search"
)

// maxSnippetLength bounds snippet text kept per result
const maxSnippetLength = 500

// Parser is implemented by every provider parser
type Parser interface {
	Name() string
	Provider() search.ProviderType
	Supports(m search.Mode) bool
}

// WebParser extracts results from a results page
type WebParser interface {
	Parser
	ParseHTML(html string, limit int) ([]search.Result, error)
}

// APIParser extracts results from a JSON API response
type APIParser interface {
	Parser
	ParseJSON(body []byte, limit int) ([]search.Result, error)
}

// Unified holds at most one web and one API parser for a provider and
// dispatches by mode.
type Unified struct {
	provider search.ProviderType
	web      WebParser
	api      APIParser
}

// NewUnified combines web and api; either may be nil
func NewUnified(p search.ProviderType, web WebParser, api APIParser) *Unified {
	return &Unified{provider: p, web: web, api: api}
}

func (u *Unified) Name() string {
	return string(u.provider) + " parser"
}

func (u *Unified) Provider() search.ProviderType {
	return u.provider
}

func (u *Unified) Supports(m search.Mode) bool {
	switch m {
	case search.ModeWeb:
		return u.web != nil
	case search.ModeAPI:
		return u.api != nil
	}
	return false
}

// Parse routes payload to the parser for mode m
func (u *Unified) Parse(m search.Mode, payload []byte, limit int) ([]search.Result, error) {
	switch {
	case m == search.ModeWeb && u.web != nil:
		return u.web.ParseHTML(string(payload), limit)
	case m == search.ModeAPI && u.api != nil:
		return u.api.ParseJSON(payload, limit)
	}
	return nil, &search.UnsupportedModeError{Provider: u.provider, Mode: m}
}

// collector accumulates valid units and assigns ranks
type collector struct {
	limit   int
	results []search.Result
}

// collectorPrealloc caps the initial capacity; limit itself has no upper bound
const collectorPrealloc = 16

func newCollector(limit int) *collector {
	return &collector{limit: limit, results: make([]search.Result, 0, min(max(limit, 0), collectorPrealloc))}
}

func (c *collector) full() bool {
	return len(c.results) >= c.limit
}

// add keeps the unit if it has a title and a usable URL
func (c *collector) add(title, rawURL, snippet, base string) bool {
	title = cleanText(title)
	if title == "" || c.full() {
		return false
	}
	u, ok := normalizeURL(rawURL, base)
	if !ok {
		return false
	}
	c.results = append(c.results, search.Result{
		Title:   title,
		URL:     u,
		Snippet: truncateRunes(cleanText(snippet), maxSnippetLength),
		Rank:    len(c.results) + 1,
	})
	return true
}

// normalizeURL resolves href against base and accepts only absolute http(s) URLs
func normalizeURL(href, base string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() && base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		u = b.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// cleanText collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func containerMissing(p search.ProviderType, container string) error {
	return &search.ParseError{
		Provider: p,
		Message:  fmt.Sprintf("result container %q not found", container),
	}
}
