package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/metrics"
	"github.com/tinfoilsh/websearch/parser"
	"github.com/tinfoilsh/websearch/search"
)

// fakeFetcher serves pages from a function and records requested URLs
type fakeFetcher struct {
	mu    sync.Mutex
	urls  []string
	fetch func(ctx context.Context, url string) (string, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, mode fetcher.Mode, format fetcher.Format) (string, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	return f.fetch(ctx, url)
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// fakeClient returns a fixed body or error and counts calls
type fakeClient struct {
	provider search.ProviderType
	body     string
	err      error
	block    bool
	calls    int
}

func (c *fakeClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	c.calls++
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.body), nil
}

func (c *fakeClient) Provider() search.ProviderType { return c.provider }
func (c *fakeClient) Name() string                  { return "fake " + string(c.provider) }

func bingPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><ol id="b_results">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li class="b_algo"><h2><a href="https://rust.example/%d">Rust result %d</a></h2><div class="b_caption"><p>Snippet %d</p></div></li>`, i, i, i)
	}
	b.WriteString(`</ol></body></html>`)
	return b.String()
}

func travilyBody(urls ...string) string {
	items := make([]string, len(urls))
	for i, u := range urls {
		items[i] = fmt.Sprintf(`{"title":"Travily %d","url":%q,"content":"content %d"}`, i+1, u, i+1)
	}
	return `{"results":[` + strings.Join(items, ",") + `]}`
}

type engineFixture struct {
	registry *search.Registry
	configs  map[search.ProviderType]search.ProviderConfig
	clients  map[search.ProviderType]search.Client
	fetcher  *fakeFetcher
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func newEngineFixture() *engineFixture {
	return &engineFixture{
		registry: search.DefaultRegistry(),
		configs:  map[search.ProviderType]search.ProviderConfig{},
		clients:  map[search.ProviderType]search.Client{},
		fetcher: &fakeFetcher{fetch: func(ctx context.Context, url string) (string, error) {
			return "", fmt.Errorf("unexpected fetch of %s", url)
		}},
		timeout: 5 * time.Second,
	}
}

func (f *engineFixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	factory, err := parser.NewFactory(f.registry, parser.DefaultBindings(), nil)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	stages := DefaultStages(f.registry, factory, f.fetcher, fetcher.ModePlain, f.clients)
	return NewPipeline(stages, f.configs, f.timeout, f.metrics)
}

func (f *engineFixture) controller(t *testing.T, policy Policy) *Controller {
	t.Helper()
	return NewController(f.pipeline(t), f.registry, f.configs, policy)
}

func (f *engineFixture) engine(t *testing.T, policy Policy) *Engine {
	t.Helper()
	factory, err := parser.NewFactory(f.registry, parser.DefaultBindings(), nil)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	e, err := NewEngine(Options{
		Registry:         f.registry,
		Factory:          factory,
		Clients:          f.clients,
		Configs:          f.configs,
		Fetcher:          f.fetcher,
		Policy:           policy,
		Timeout:          f.timeout,
		FetchConcurrency: 2,
		Metrics:          f.metrics,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}
