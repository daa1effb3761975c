package search

// Capability records which modes a provider offers
type Capability struct {
	SupportsWeb    bool `json:"supports_web"`
	SupportsAPI    bool `json:"supports_api"`
	APIKeyRequired bool `json:"api_key_required_for_api"`
}

// Supports reports whether mode m is available
func (c Capability) Supports(m Mode) bool {
	switch m {
	case ModeWeb:
		return c.SupportsWeb
	case ModeAPI:
		return c.SupportsAPI
	}
	return false
}

// RequiresKey reports whether a request in mode m needs an API key.
// Web queries never do.
func (c Capability) RequiresKey(m Mode) bool {
	return m == ModeAPI && c.SupportsAPI && c.APIKeyRequired
}

// Registry is a read-only table of provider capabilities
type Registry struct {
	caps map[ProviderType]Capability
}

// NewRegistry copies caps into a new registry
func NewRegistry(caps map[ProviderType]Capability) *Registry {
	r := &Registry{caps: make(map[ProviderType]Capability, len(caps))}
	for p, c := range caps {
		r.caps[p] = c
	}
	return r
}

// DefaultRegistry returns the built-in capability table
func DefaultRegistry() *Registry {
	return NewRegistry(map[ProviderType]Capability{
		Bing:         {SupportsWeb: true},
		Google:       {SupportsWeb: true, SupportsAPI: true, APIKeyRequired: true},
		GoogleSerper: {SupportsAPI: true, APIKeyRequired: true},
		Brave:        {SupportsWeb: true, SupportsAPI: true, APIKeyRequired: true},
		DuckDuckGo:   {SupportsWeb: true, SupportsAPI: true},
		Exa:          {SupportsWeb: true, SupportsAPI: true, APIKeyRequired: true},
		Travily:      {SupportsAPI: true, APIKeyRequired: true},
		Baidu:        {SupportsWeb: true, SupportsAPI: true, APIKeyRequired: true},
	})
}

// Capability returns the record for p. Custom providers that are not in the
// table are web-only and keyless; other unknown providers support nothing.
func (r *Registry) Capability(p ProviderType) Capability {
	if c, ok := r.caps[p]; ok {
		return c
	}
	if p.IsCustom() {
		return Capability{SupportsWeb: true}
	}
	return Capability{}
}

// Validate fails with UnsupportedModeError when p cannot serve mode m
func (r *Registry) Validate(p ProviderType, m Mode) error {
	if !r.Capability(p).Supports(m) {
		return &UnsupportedModeError{Provider: p, Mode: m}
	}
	return nil
}

// Eligible reports whether p can be attempted in mode m with cfg, without
// doing any I/O. Web mode needs a results-page pattern, API mode may need a
// key.
func (r *Registry) Eligible(p ProviderType, m Mode, cfg ProviderConfig) bool {
	c := r.Capability(p)
	if !c.Supports(m) {
		return false
	}
	if m == ModeWeb && !cfg.HasQueryPattern(p) {
		return false
	}
	return !c.RequiresKey(m) || cfg.HasKey()
}

// Providers lists the registered providers in name order
func (r *Registry) Providers() []ProviderType {
	return sortedProviders(r.caps)
}
