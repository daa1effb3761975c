package parser

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/tinfoilsh/websearch/search"
)

// Rules locate result fields on a custom engine's results page. They are
// plain data and are only ever compiled as CSS selectors.
type Rules struct {
	Container string `yaml:"container" json:"container"`
	Title     string `yaml:"title" json:"title"`
	URL       string `yaml:"url" json:"url"`
	URLAttr   string `yaml:"url_attr,omitempty" json:"url_attr,omitempty"`
	Snippet   string `yaml:"snippet,omitempty" json:"snippet,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Skip      string `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// DefaultRules are used for custom providers without configured rules
func DefaultRules() Rules {
	return Rules{
		Container: ".result",
		Title:     "h3 a",
		URL:       "cite",
		Snippet:   ".snippet",
	}
}

// Validate checks that the required locators are present and compile
func (r Rules) Validate() error {
	fields := []struct {
		name, sel string
		required  bool
	}{
		{"container", r.Container, true},
		{"title", r.Title, true},
		{"url", r.URL, true},
		{"snippet", r.Snippet, false},
		{"skip", r.Skip, false},
	}
	for _, f := range fields {
		if f.sel == "" {
			if f.required {
				return &search.ValidationError{Field: f.name, Message: "selector is required"}
			}
			continue
		}
		if _, err := cascadia.ParseGroup(f.sel); err != nil {
			return &search.ValidationError{Field: f.name, Message: fmt.Sprintf("invalid selector %q: %v", f.sel, err)}
		}
	}
	return nil
}

// NewCustomParser builds a web parser for p from rules. Rules must be valid.
func NewCustomParser(p search.ProviderType, r Rules) WebParser {
	sel := selectors{
		Container: r.Container,
		Title:     r.Title,
		URL:       r.URL,
		URLAttr:   r.URLAttr,
		Snippet:   r.Snippet,
		BaseURL:   r.BaseURL,
	}
	if r.Skip != "" {
		matcher := cascadia.MustCompile(r.Skip)
		sel.Skip = func(s *goquery.Selection) bool {
			return s.IsMatcher(matcher) || s.FindMatcher(matcher).Length() > 0
		}
	}
	return &htmlParser{name: "CustomParser(" + string(p) + ")", provider: p, sel: sel}
}
