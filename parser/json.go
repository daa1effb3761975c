package parser

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tinfoilsh/websearch/search"
)

// jsonParser extracts results with gjson paths
type jsonParser struct {
	name      string
	provider  search.ProviderType
	container string
	title     string
	url       string
	// snippet paths are tried in order; the first non-empty one wins
	snippet []string
}

func (p *jsonParser) Name() string                  { return p.name }
func (p *jsonParser) Provider() search.ProviderType { return p.provider }
func (p *jsonParser) Supports(m search.Mode) bool   { return m == search.ModeAPI }

func (p *jsonParser) ParseJSON(body []byte, limit int) ([]search.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, &search.ParseError{Provider: p.provider, Message: "malformed JSON body"}
	}

	items := gjson.GetBytes(body, p.container)
	if !items.Exists() || !items.IsArray() {
		return nil, containerMissing(p.provider, p.container)
	}

	c := newCollector(limit)
	items.ForEach(func(_, item gjson.Result) bool {
		if c.full() {
			return false
		}
		c.add(item.Get(p.title).String(), item.Get(p.url).String(), firstString(item, p.snippet), "")
		return true
	})
	return c.results, nil
}

func firstString(item gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(item.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

// NewBraveAPIParser reads web.results from the Brave Search API
func NewBraveAPIParser() APIParser {
	return &jsonParser{
		name:      "BraveAPIParser",
		provider:  search.Brave,
		container: "web.results",
		title:     "title",
		url:       "url",
		snippet:   []string{"description"},
	}
}

// NewExaAPIParser reads results from the Exa API
func NewExaAPIParser() APIParser {
	return &jsonParser{
		name:      "ExaAPIParser",
		provider:  search.Exa,
		container: "results",
		title:     "title",
		url:       "url",
		snippet:   []string{"text", "summary", "highlights.0"},
	}
}

// NewTravilyAPIParser reads results from the Tavily API
func NewTravilyAPIParser() APIParser {
	return &jsonParser{
		name:      "TravilyAPIParser",
		provider:  search.Travily,
		container: "results",
		title:     "title",
		url:       "url",
		snippet:   []string{"content"},
	}
}

// NewSerperAPIParser reads organic results from serper.dev
func NewSerperAPIParser() APIParser {
	return &jsonParser{
		name:      "SerperAPIParser",
		provider:  search.GoogleSerper,
		container: "organic",
		title:     "title",
		url:       "link",
		snippet:   []string{"snippet"},
	}
}

// NewGoogleAPIParser reads items from the Programmable Search JSON API
func NewGoogleAPIParser() APIParser {
	return &jsonParser{
		name:      "GoogleAPIParser",
		provider:  search.Google,
		container: "items",
		title:     "title",
		url:       "link",
		snippet:   []string{"snippet"},
	}
}

// NewBaiduAPIParser reads results from the Baidu API
func NewBaiduAPIParser() APIParser {
	return &jsonParser{
		name:      "BaiduAPIParser",
		provider:  search.Baidu,
		container: "results",
		title:     "title",
		url:       "url",
		snippet:   []string{"snippet", "abstract"},
	}
}

// duckDuckGoAPIParser reads the Instant Answer API. Direct Results come first,
// then RelatedTopics with category groups flattened in place.
type duckDuckGoAPIParser struct{}

// NewDuckDuckGoAPIParser returns the Instant Answer parser
func NewDuckDuckGoAPIParser() APIParser {
	return duckDuckGoAPIParser{}
}

func (duckDuckGoAPIParser) Name() string                  { return "DuckDuckGoAPIParser" }
func (duckDuckGoAPIParser) Provider() search.ProviderType { return search.DuckDuckGo }
func (duckDuckGoAPIParser) Supports(m search.Mode) bool   { return m == search.ModeAPI }

func (duckDuckGoAPIParser) ParseJSON(body []byte, limit int) ([]search.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, &search.ParseError{Provider: search.DuckDuckGo, Message: "malformed JSON body"}
	}

	root := gjson.ParseBytes(body)
	results, related := root.Get("Results"), root.Get("RelatedTopics")
	if !results.IsArray() && !related.IsArray() {
		return nil, containerMissing(search.DuckDuckGo, "RelatedTopics")
	}

	c := newCollector(limit)
	var visit func(_, topic gjson.Result) bool
	visit = func(_, topic gjson.Result) bool {
		if c.full() {
			return false
		}
		if group := topic.Get("Topics"); group.IsArray() {
			group.ForEach(visit)
			return !c.full()
		}
		text := topic.Get("Text").String()
		c.add(topicTitle(text), topic.Get("FirstURL").String(), text, "")
		return true
	}
	results.ForEach(visit)
	related.ForEach(visit)

	return c.results, nil
}

// topicTitle takes the part of an Instant Answer text before " - "
func topicTitle(text string) string {
	if i := strings.Index(text, " - "); i > 0 {
		return text[:i]
	}
	return text
}
