package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/metrics"
	"github.com/tinfoilsh/websearch/search"
)

// MockStage implements Stage for testing
type MockStage struct {
	name        string
	executeFunc func(ctx *Context) error
	executed    bool
}

func (s *MockStage) Name() string { return s.name }

func (s *MockStage) Execute(ctx *Context) error {
	s.executed = true
	if s.executeFunc != nil {
		return s.executeFunc(ctx)
	}
	return nil
}

var webQuery = search.Query{Text: "rust programming", Limit: 3, Mode: search.ModeWeb}

func TestNewPipeline(t *testing.T) {
	stages := []Stage{&MockStage{name: "stage1"}, &MockStage{name: "stage2"}}
	cfgs := map[search.ProviderType]search.ProviderConfig{search.Exa: {APIKey: "k"}}

	p := NewPipeline(stages, cfgs, 30*time.Second, nil)
	cfgs[search.Exa] = search.ProviderConfig{}

	if len(p.Stages()) != 2 {
		t.Errorf("expected 2 stages, got %d", len(p.Stages()))
	}
	if p.Timeout() != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", p.Timeout())
	}
	if p.Config(search.Exa).APIKey != "k" {
		t.Error("pipeline should keep its own copy of the configs")
	}
}

func TestPipelineRun_StopsOnError(t *testing.T) {
	stage1 := &MockStage{name: "stage1"}
	stage2 := &MockStage{name: "stage2", executeFunc: func(ctx *Context) error {
		return &search.ParseError{Provider: ctx.Provider, Message: "container missing"}
	}}
	stage3 := &MockStage{name: "stage3"}

	p := NewPipeline([]Stage{stage1, stage2, stage3}, nil, time.Second, nil)
	_, err := p.Run(context.Background(), search.Bing, webQuery)

	var pipelineErr *PipelineError
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pipelineErr.Stage != "stage2" || pipelineErr.Provider != search.Bing {
		t.Errorf("unexpected stage/provider %s/%s", pipelineErr.Stage, pipelineErr.Provider)
	}
	if !stage1.executed || !stage2.executed {
		t.Error("stages before the failure should run")
	}
	if stage3.executed {
		t.Error("stage3 should not run after a failure")
	}
}

func TestPipelineRun_SharesSearchID(t *testing.T) {
	var got string
	stage := &MockStage{name: "capture", executeFunc: func(ctx *Context) error {
		got = ctx.SearchID
		return nil
	}}
	p := NewPipeline([]Stage{stage}, nil, time.Second, nil)

	p.Run(WithSearchID(context.Background(), "search-123"), search.Bing, webQuery)
	if got != "search-123" {
		t.Errorf("expected search ID from context, got %q", got)
	}

	p.Run(context.Background(), search.Bing, webQuery)
	if got == "" || got == "search-123" {
		t.Errorf("expected a generated search ID, got %q", got)
	}
}

func TestPipelineRun_TimeoutDiscardsAttempt(t *testing.T) {
	stage := &MockStage{name: "slow", executeFunc: func(ctx *Context) error {
		ctx.Results = []search.Result{{Title: "partial", URL: "https://a.example", Rank: 1}}
		<-ctx.Done()
		return ctx.Err()
	}}
	p := NewPipeline([]Stage{stage}, nil, 20*time.Millisecond, nil)

	results, err := p.Run(context.Background(), search.Exa, webQuery)
	if results != nil {
		t.Errorf("timed-out attempt returned results: %v", results)
	}
	var timeoutErr *search.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Provider != search.Exa {
		t.Errorf("expected provider exa, got %s", timeoutErr.Provider)
	}
}

func TestPipelineRun_WebQueryTruncatesToLimit(t *testing.T) {
	f := newEngineFixture()
	f.fetcher.fetch = func(ctx context.Context, url string) (string, error) {
		if !strings.HasPrefix(url, "https://www.bing.com/search?q=rust+programming") {
			t.Errorf("unexpected results page URL %s", url)
		}
		return bingPage(5), nil
	}

	results, err := f.pipeline(t).Run(context.Background(), search.Bing, webQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
	}
	if results[0].URL != "https://rust.example/1" || results[2].Title != "Rust result 3" {
		t.Errorf("results out of document order: %+v", results)
	}
}

func TestPipelineRun_CustomQueryPattern(t *testing.T) {
	f := newEngineFixture()
	f.configs[search.Bing] = search.ProviderConfig{QueryPattern: "https://mirror.example/find?term={query}"}
	f.fetcher.fetch = func(ctx context.Context, url string) (string, error) {
		return bingPage(1), nil
	}

	if _, err := f.pipeline(t).Run(context.Background(), search.Bing, webQuery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.fetcher.requested(); len(got) != 1 || got[0] != "https://mirror.example/find?term=rust+programming" {
		t.Errorf("unexpected fetch URLs %v", got)
	}
}

func TestPipelineRun_WebQueryNeverAuthError(t *testing.T) {
	f := newEngineFixture()
	f.configs[search.Brave] = search.ProviderConfig{APIKey: "ignored"}
	f.fetcher.fetch = func(ctx context.Context, url string) (string, error) {
		return "", &fetcher.StatusError{URL: url, StatusCode: 403}
	}

	_, err := f.pipeline(t).Run(context.Background(), search.Brave, webQuery)

	var authErr *search.AuthError
	if errors.As(err, &authErr) {
		t.Fatalf("web query returned AuthError: %v", err)
	}
	var networkErr *search.NetworkError
	if !errors.As(err, &networkErr) || networkErr.StatusCode != 403 {
		t.Errorf("expected NetworkError with status 403, got %v", err)
	}
}

func TestPipelineRun_MissingKeyFailsBeforeNetwork(t *testing.T) {
	f := newEngineFixture()
	brave := &fakeClient{provider: search.Brave, body: `{"web":{"results":[]}}`}
	f.clients[search.Brave] = brave

	_, err := f.pipeline(t).Run(context.Background(), search.Brave, search.Query{Text: "q", Limit: 5, Mode: search.ModeAPI})

	var authErr *search.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if brave.calls != 0 {
		t.Errorf("client called %d times without a key", brave.calls)
	}
}

func TestPipelineRun_DuckDuckGoAPIWithoutKey(t *testing.T) {
	f := newEngineFixture()
	f.clients[search.DuckDuckGo] = &fakeClient{provider: search.DuckDuckGo, body: `{"Results":[],"RelatedTopics":[]}`}

	results, err := f.pipeline(t).Run(context.Background(), search.DuckDuckGo, search.Query{Text: "q", Limit: 5, Mode: search.ModeAPI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestPipelineRun_UnsupportedMode(t *testing.T) {
	f := newEngineFixture()

	_, err := f.pipeline(t).Run(context.Background(), search.Travily, webQuery)

	var unsupported *search.UnsupportedModeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedModeError, got %v", err)
	}
	if len(f.fetcher.requested()) != 0 {
		t.Error("no page should be fetched for an unsupported mode")
	}
}

func TestPipelineRun_RecordsMetrics(t *testing.T) {
	f := newEngineFixture()
	f.metrics = metrics.New(prometheus.NewRegistry())
	f.configs[search.Exa] = search.ProviderConfig{APIKey: "k"}
	f.clients[search.Exa] = &fakeClient{provider: search.Exa, err: &search.NetworkError{Provider: search.Exa, StatusCode: 502}}
	f.clients[search.Travily] = &fakeClient{provider: search.Travily, body: travilyBody("https://t.example/1")}
	f.configs[search.Travily] = search.ProviderConfig{APIKey: "k"}

	p := f.pipeline(t)
	q := search.Query{Text: "q", Limit: 5, Mode: search.ModeAPI}
	p.Run(context.Background(), search.Exa, q)
	p.Run(context.Background(), search.Travily, q)

	if got := testutil.ToFloat64(f.metrics.Attempts.WithLabelValues("exa", "apiquery", "network_error")); got != 1 {
		t.Errorf("expected 1 exa network_error attempt, got %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.Attempts.WithLabelValues("travily", "apiquery", "success")); got != 1 {
		t.Errorf("expected 1 travily success, got %v", got)
	}
}
