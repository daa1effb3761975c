package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinfoilsh/websearch/search"
)

type fakeWebParser struct {
	provider search.ProviderType
	results  []search.Result
}

func (f *fakeWebParser) Name() string                  { return "fake" }
func (f *fakeWebParser) Provider() search.ProviderType { return f.provider }
func (f *fakeWebParser) Supports(m search.Mode) bool   { return m == search.ModeWeb }
func (f *fakeWebParser) ParseHTML(string, int) ([]search.Result, error) {
	return f.results, nil
}

func newDefaultFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(search.DefaultRegistry(), DefaultBindings(), nil)
	require.NoError(t, err)
	return f
}

func TestFactory_DefaultBindingsCoverRegistry(t *testing.T) {
	reg := search.DefaultRegistry()
	f := newDefaultFactory(t)

	for _, p := range reg.Providers() {
		for _, m := range []search.Mode{search.ModeWeb, search.ModeAPI} {
			if !reg.Capability(p).Supports(m) {
				continue
			}
			u, err := f.Get(p, m)
			require.NoError(t, err, "%s/%s", p, m)
			assert.True(t, u.Supports(m))
			assert.Equal(t, p, u.Provider())
		}
	}
}

func TestFactory_UnsupportedCombination(t *testing.T) {
	f := newDefaultFactory(t)

	_, err := f.Get(search.Bing, search.ModeAPI)
	var unsupportedErr *search.UnsupportedModeError
	require.ErrorAs(t, err, &unsupportedErr)

	_, err = f.Get(search.Travily, search.ModeWeb)
	require.ErrorAs(t, err, &unsupportedErr)
}

func TestFactory_RegistryClaimsSupportButNoParser(t *testing.T) {
	reg := search.NewRegistry(map[search.ProviderType]search.Capability{
		search.Brave: {SupportsWeb: true, SupportsAPI: true, APIKeyRequired: true},
	})
	f, err := NewFactory(reg, Bindings{
		{search.Brave, search.ModeWeb}: NewBraveParser(),
	}, nil)
	require.NoError(t, err)

	_, err = f.Get(search.Brave, search.ModeAPI)
	var unsupportedErr *search.UnsupportedModeError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, search.ModeAPI, unsupportedErr.Mode)
}

func TestFactory_InjectedBinding(t *testing.T) {
	want := []search.Result{{Title: "fake", URL: "https://fake.example", Rank: 1}}
	f, err := NewFactory(search.DefaultRegistry(), Bindings{
		{search.Bing, search.ModeWeb}: &fakeWebParser{provider: search.Bing, results: want},
	}, nil)
	require.NoError(t, err)

	u, err := f.Get(search.Bing, search.ModeWeb)
	require.NoError(t, err)
	got, err := u.Parse(search.ModeWeb, []byte("<html></html>"), 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The default factory is unaffected.
	_, err = newDefaultFactory(t).Get(search.Bing, search.ModeWeb)
	require.NoError(t, err)
}

func TestFactory_RejectsMismatchedBinding(t *testing.T) {
	_, err := NewFactory(search.DefaultRegistry(), Bindings{
		{search.Brave, search.ModeAPI}: NewBraveParser(),
	}, nil)
	assert.Error(t, err)
}

func TestFactory_CustomProviders(t *testing.T) {
	intranet := search.Custom("intranet")
	f, err := NewFactory(search.DefaultRegistry(), DefaultBindings(), map[search.ProviderType]Rules{
		intranet: {Container: "article", Title: "h2", URL: "a", Snippet: "p", BaseURL: "https://intranet.local"},
	})
	require.NoError(t, err)

	u, err := f.Get(intranet, search.ModeWeb)
	require.NoError(t, err)
	results, err := u.Parse(search.ModeWeb, []byte(`<article><h2>Handbook</h2><a href="/handbook">open</a><p>Team handbook</p></article>`), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://intranet.local/handbook", results[0].URL)

	_, err = f.Get(intranet, search.ModeAPI)
	var unsupportedErr *search.UnsupportedModeError
	require.ErrorAs(t, err, &unsupportedErr)

	// Custom providers without rules get the defaults.
	u, err = f.Get(search.Custom("other"), search.ModeWeb)
	require.NoError(t, err)
	results, err = u.Parse(search.ModeWeb, []byte(`<div class="result"><h3><a>Other</a></h3><cite>https://other.example/page</cite><div class="snippet">s</div></div>`), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://other.example/page", results[0].URL)
}

func TestFactory_InvalidRules(t *testing.T) {
	_, err := NewFactory(search.DefaultRegistry(), DefaultBindings(), map[search.ProviderType]Rules{
		search.Custom("broken"): {Container: "div[", Title: "h3", URL: "a"},
	})
	var validationErr *search.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "container", validationErr.Field)
}

func TestUnified_MissingImplementation(t *testing.T) {
	u := NewUnified(search.Exa, nil, NewExaAPIParser())

	_, err := u.Parse(search.ModeWeb, []byte("<html></html>"), 5)
	var unsupportedErr *search.UnsupportedModeError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.False(t, u.Supports(search.ModeWeb))
	assert.True(t, u.Supports(search.ModeAPI))
}
