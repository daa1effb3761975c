package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/metrics"
	"github.com/tinfoilsh/websearch/parser"
	"github.com/tinfoilsh/websearch/search"
)

const defaultFetchConcurrency = 4

// Options configures an Engine
type Options struct {
	Registry *search.Registry
	Factory  *parser.Factory
	Clients  map[search.ProviderType]search.Client
	Configs  map[search.ProviderType]search.ProviderConfig
	Fetcher  Fetcher
	// WebFetchMode is used to acquire results pages in web mode
	WebFetchMode     fetcher.Mode
	Policy           Policy
	Timeout          time.Duration
	FetchConcurrency int
	Metrics          *metrics.Metrics
}

// Engine is the entry point for searches. Everything it holds is read-only
// after NewEngine, so one engine serves concurrent callers.
type Engine struct {
	controller       *Controller
	fetcher          Fetcher
	fetchConcurrency int
	metrics          *metrics.Metrics
}

// NewEngine wires the pipeline and controller from opts
func NewEngine(opts Options) (*Engine, error) {
	switch {
	case opts.Registry == nil:
		return nil, errors.New("engine requires a registry")
	case opts.Factory == nil:
		return nil, errors.New("engine requires a parser factory")
	case opts.Fetcher == nil:
		return nil, errors.New("engine requires a fetcher")
	case len(opts.Policy.Order) == 0:
		return nil, errors.New("engine requires at least one provider")
	}
	if opts.WebFetchMode == "" {
		opts.WebFetchMode = fetcher.ModePlain
	}
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = defaultFetchConcurrency
	}

	stages := DefaultStages(opts.Registry, opts.Factory, opts.Fetcher, opts.WebFetchMode, opts.Clients)
	p := NewPipeline(stages, opts.Configs, opts.Timeout, opts.Metrics)

	return &Engine{
		controller:       NewController(p, opts.Registry, opts.Configs, opts.Policy),
		fetcher:          opts.Fetcher,
		fetchConcurrency: opts.FetchConcurrency,
		metrics:          opts.Metrics,
	}, nil
}

// Search returns the results of the first provider that succeeds under the
// engine's policy
func (e *Engine) Search(ctx context.Context, text string, mode search.Mode, limit int) ([]search.Result, error) {
	out, err := e.SearchOutcome(ctx, search.Query{Text: text, Mode: mode, Limit: limit})
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SearchOutcome is Search with the serving provider and earlier failures
func (e *Engine) SearchOutcome(ctx context.Context, query search.Query) (*Outcome, error) {
	return e.controller.Search(ctx, query)
}

// Policy returns the engine's autoswitch policy
func (e *Engine) Policy() Policy {
	return e.controller.Policy()
}
