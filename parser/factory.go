package parser

import (
	"fmt"

	"github.com/tinfoilsh/websearch/search"
)

// Binding keys a parser by provider and mode
type Binding struct {
	Provider search.ProviderType
	Mode     search.Mode
}

// Bindings maps provider/mode pairs to parsers. Web bindings must hold a
// WebParser and API bindings an APIParser.
type Bindings map[Binding]Parser

// DefaultBindings returns the built-in parsers
func DefaultBindings() Bindings {
	return Bindings{
		{search.Bing, search.ModeWeb}:         NewBingParser(),
		{search.Google, search.ModeWeb}:       NewGoogleParser(),
		{search.DuckDuckGo, search.ModeWeb}:   NewDuckDuckGoParser(),
		{search.Brave, search.ModeWeb}:        NewBraveParser(),
		{search.Baidu, search.ModeWeb}:        NewBaiduParser(),
		{search.Exa, search.ModeWeb}:          NewExaWebParser(),
		{search.Google, search.ModeAPI}:       NewGoogleAPIParser(),
		{search.GoogleSerper, search.ModeAPI}: NewSerperAPIParser(),
		{search.Brave, search.ModeAPI}:        NewBraveAPIParser(),
		{search.DuckDuckGo, search.ModeAPI}:   NewDuckDuckGoAPIParser(),
		{search.Exa, search.ModeAPI}:          NewExaAPIParser(),
		{search.Travily, search.ModeAPI}:      NewTravilyAPIParser(),
		{search.Baidu, search.ModeAPI}:        NewBaiduAPIParser(),
	}
}

// Factory resolves the parser for a provider and mode. It is built once per
// engine and never modified.
type Factory struct {
	registry *search.Registry
	bindings Bindings
	custom   map[search.ProviderType]WebParser
}

// NewFactory validates and copies bindings and custom rules
func NewFactory(reg *search.Registry, bindings Bindings, rules map[search.ProviderType]Rules) (*Factory, error) {
	f := &Factory{
		registry: reg,
		bindings: make(Bindings, len(bindings)),
		custom:   make(map[search.ProviderType]WebParser, len(rules)),
	}

	for b, p := range bindings {
		switch b.Mode {
		case search.ModeWeb:
			if _, ok := p.(WebParser); !ok {
				return nil, fmt.Errorf("parser %s bound to %s/%s is not a web parser", p.Name(), b.Provider, b.Mode)
			}
		case search.ModeAPI:
			if _, ok := p.(APIParser); !ok {
				return nil, fmt.Errorf("parser %s bound to %s/%s is not an API parser", p.Name(), b.Provider, b.Mode)
			}
		default:
			return nil, fmt.Errorf("binding for %s has unknown mode %q", b.Provider, b.Mode)
		}
		f.bindings[b] = p
	}

	for p, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("custom rules for %s: %w", p, err)
		}
		f.custom[p] = NewCustomParser(p, r)
	}

	return f, nil
}

// Get returns the parser for p in mode m. Providers with no bindings at all
// use their custom rules, or DefaultRules when none were configured.
func (f *Factory) Get(p search.ProviderType, m search.Mode) (*Unified, error) {
	if err := f.registry.Validate(p, m); err != nil {
		return nil, err
	}

	web, _ := f.bindings[Binding{p, search.ModeWeb}].(WebParser)
	api, _ := f.bindings[Binding{p, search.ModeAPI}].(APIParser)
	if web == nil && api == nil {
		web = f.custom[p]
		if web == nil {
			web = NewCustomParser(p, DefaultRules())
		}
	}

	u := NewUnified(p, web, api)
	if !u.Supports(m) {
		return nil, &search.UnsupportedModeError{Provider: p, Mode: m}
	}
	return u, nil
}
