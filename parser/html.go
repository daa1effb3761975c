package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/tinfoilsh/websearch/search"
)

// selectors describes where the fields of one result unit live
type selectors struct {
	Container string
	Title     string
	URL       string
	// URLAttr is read from the URL element. Without it, the element text is
	// used if it is an absolute URL (e.g. <cite>).
	URLAttr string
	Snippet string
	BaseURL string
	// Skip drops units such as ads before extraction
	Skip func(*goquery.Selection) bool
	// Unwrap rewrites redirect links to their target
	Unwrap func(string) string
}

// htmlParser extracts results with CSS selectors
type htmlParser struct {
	name     string
	provider search.ProviderType
	sel      selectors
}

func (p *htmlParser) Name() string                  { return p.name }
func (p *htmlParser) Provider() search.ProviderType { return p.provider }
func (p *htmlParser) Supports(m search.Mode) bool   { return m == search.ModeWeb }

func (p *htmlParser) ParseHTML(html string, limit int) ([]search.Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &search.ParseError{Provider: p.provider, Message: "invalid HTML", Err: err}
	}

	units := doc.Find(p.sel.Container)
	if units.Length() == 0 {
		return nil, containerMissing(p.provider, p.sel.Container)
	}

	c := newCollector(limit)
	skipped := 0
	units.EachWithBreak(func(_ int, unit *goquery.Selection) bool {
		if c.full() {
			return false
		}
		if p.sel.Skip != nil && p.sel.Skip(unit) {
			skipped++
			return true
		}
		title, href, snippet := p.extract(unit)
		if !c.add(title, href, snippet, p.sel.BaseURL) {
			skipped++
		}
		return true
	})

	if skipped > 0 {
		log.WithFields(log.Fields{
			"parser":  p.name,
			"skipped": skipped,
		}).Debug("skipped incomplete result units")
	}
	return c.results, nil
}

func (p *htmlParser) extract(unit *goquery.Selection) (title, href, snippet string) {
	title = unit.Find(p.sel.Title).First().Text()

	link := unit.Find(p.sel.URL).First()
	attr := p.sel.URLAttr
	if attr == "" {
		attr = "href"
	}
	if v, ok := link.Attr(attr); ok {
		href = v
	} else if text := strings.TrimSpace(link.Text()); strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		href = text
	}
	if p.sel.Unwrap != nil {
		href = p.sel.Unwrap(href)
	}

	if p.sel.Snippet != "" {
		snippet = unit.Find(p.sel.Snippet).First().Text()
	}
	return title, href, snippet
}

// NewBingParser parses www.bing.com result pages
func NewBingParser() WebParser {
	return &htmlParser{
		name:     "BingParser",
		provider: search.Bing,
		sel: selectors{
			Container: "li.b_algo",
			Title:     "h2 a",
			URL:       "h2 a",
			Snippet:   ".b_caption p",
			BaseURL:   "https://www.bing.com",
		},
	}
}

// NewGoogleParser parses www.google.com result pages
func NewGoogleParser() WebParser {
	return &htmlParser{
		name:     "GoogleParser",
		provider: search.Google,
		sel: selectors{
			Container: ".tF2Cxc",
			Title:     "h3",
			URL:       ".yuRUbf a",
			Snippet:   ".IsZvec, .VwiC3b",
			BaseURL:   "https://www.google.com",
			Unwrap:    unwrapQueryParam("/url", "q"),
		},
	}
}

// NewDuckDuckGoParser parses the html.duckduckgo.com results page
func NewDuckDuckGoParser() WebParser {
	return &htmlParser{
		name:     "DuckDuckGoParser",
		provider: search.DuckDuckGo,
		sel: selectors{
			Container: ".result__body",
			Title:     "a.result__a",
			URL:       "a.result__a",
			Snippet:   ".result__snippet",
			BaseURL:   "https://duckduckgo.com",
			Skip: func(s *goquery.Selection) bool {
				return s.Closest(".result--ad").Length() > 0
			},
			Unwrap: unwrapQueryParam("/l/", "uddg"),
		},
	}
}

// NewBraveParser parses search.brave.com result pages
func NewBraveParser() WebParser {
	return &htmlParser{
		name:     "BraveParser",
		provider: search.Brave,
		sel: selectors{
			Container: ".result-row",
			Title:     "a",
			URL:       "a",
			Snippet:   ".result-snippet",
			BaseURL:   "https://search.brave.com",
		},
	}
}

// NewBaiduParser parses www.baidu.com result pages, skipping sponsored units
func NewBaiduParser() WebParser {
	return &htmlParser{
		name:     "BaiduParser",
		provider: search.Baidu,
		sel: selectors{
			Container: ".result.c-container",
			Title:     "h3 a",
			URL:       "h3 a",
			Snippet:   ".c-abstract",
			BaseURL:   "https://www.baidu.com",
			Skip:      isBaiduAd,
		},
	}
}

// NewExaWebParser parses the exa.ai search page
func NewExaWebParser() WebParser {
	return &htmlParser{
		name:     "ExaWebParser",
		provider: search.Exa,
		sel: selectors{
			Container: ".search-result",
			Title:     "h2, h3",
			URL:       "a",
			Snippet:   "p",
			BaseURL:   "https://exa.ai",
		},
	}
}

func isBaiduAd(s *goquery.Selection) bool {
	for _, attr := range s.Nodes[0].Attr {
		if strings.Contains(attr.Key, "data-tuiguang") {
			return true
		}
	}
	return s.HasClass("ec_ad") || s.HasClass("ad-block")
}

// unwrapQueryParam returns the target of redirect links such as
// //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com
func unwrapQueryParam(pathPrefix, param string) func(string) string {
	return func(href string) string {
		u, err := url.Parse(href)
		if err != nil || !strings.HasPrefix(u.Path, pathPrefix) {
			return href
		}
		if target := u.Query().Get(param); target != "" {
			return target
		}
		return href
	}
}
