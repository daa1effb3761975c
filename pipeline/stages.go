package pipeline

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/parser"
	"github.com/tinfoilsh/websearch/search"
)

// Stage represents a single processing step in the pipeline
type Stage interface {
	Name() string
	Execute(ctx *Context) error
}

// Fetcher retrieves a page in the given mode and format. *fetcher.Fetcher
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, mode fetcher.Mode, format fetcher.Format) (string, error)
}

// ValidateStage checks the query and the provider/mode combination
type ValidateStage struct {
	Registry *search.Registry
}

func (s *ValidateStage) Name() string { return "validate" }

func (s *ValidateStage) Execute(ctx *Context) error {
	if err := ctx.Query.Validate(); err != nil {
		return err
	}
	if err := s.Registry.Validate(ctx.Provider, ctx.Query.Mode); err != nil {
		return err
	}
	return ctx.State.Transition(StateValidated, nil)
}

// AcquireStage obtains the raw payload: results-page HTML in web mode, the
// provider's JSON body in API mode
type AcquireStage struct {
	Registry  *search.Registry
	Fetcher   Fetcher
	FetchMode fetcher.Mode
	Clients   map[search.ProviderType]search.Client
}

func (s *AcquireStage) Name() string { return "acquire" }

func (s *AcquireStage) Execute(ctx *Context) error {
	if err := ctx.State.Transition(StateAcquiring, map[string]any{"mode": ctx.Query.Mode}); err != nil {
		return err
	}

	if ctx.Query.Mode == search.ModeWeb {
		return s.acquirePage(ctx)
	}
	return s.callAPI(ctx)
}

func (s *AcquireStage) acquirePage(ctx *Context) error {
	pageURL, err := ctx.Config.QueryURL(ctx.Provider, ctx.Query.Text)
	if err != nil {
		return err
	}
	ctx.URL = pageURL

	log.WithFields(log.Fields{
		"search_id": ctx.SearchID,
		"provider":  ctx.Provider,
		"url":       pageURL,
	}).Debug("fetching results page")

	page, err := s.Fetcher.Fetch(ctx, pageURL, s.FetchMode, fetcher.FormatHTML)
	if err != nil {
		return classifyFetchError(ctx, ctx.Provider, err)
	}
	ctx.Payload = []byte(page)
	return nil
}

func (s *AcquireStage) callAPI(ctx *Context) error {
	if s.Registry.Capability(ctx.Provider).RequiresKey(search.ModeAPI) && !ctx.Config.HasKey() {
		return &search.AuthError{Provider: ctx.Provider, Message: "API key is not configured"}
	}

	client, ok := s.Clients[ctx.Provider]
	if !ok {
		return &search.UnsupportedModeError{Provider: ctx.Provider, Mode: search.ModeAPI}
	}

	body, err := client.Search(ctx, ctx.Query.Text, ctx.Query.Limit)
	if err != nil {
		return err
	}
	ctx.Payload = body
	return nil
}

// classifyFetchError turns a fetcher failure into a typed search error. A
// results page never yields AuthError, whatever its status.
func classifyFetchError(ctx context.Context, p search.ProviderType, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &search.TimeoutError{Provider: p, Err: err}
	}
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		return &search.NetworkError{Provider: p, StatusCode: statusErr.StatusCode}
	}
	return &search.NetworkError{Provider: p, Err: err}
}

// ParseStage normalizes the payload into canonical results
type ParseStage struct {
	Factory *parser.Factory
}

func (s *ParseStage) Name() string { return "parse" }

func (s *ParseStage) Execute(ctx *Context) error {
	if err := ctx.State.Transition(StateParsing, map[string]any{"bytes": len(ctx.Payload)}); err != nil {
		return err
	}

	p, err := s.Factory.Get(ctx.Provider, ctx.Query.Mode)
	if err != nil {
		return err
	}
	results, err := p.Parse(ctx.Query.Mode, ctx.Payload, ctx.Query.Limit)
	if err != nil {
		return err
	}
	ctx.Results = results
	return nil
}

// DefaultStages returns validate, acquire and parse wired to the given
// collaborators
func DefaultStages(reg *search.Registry, factory *parser.Factory, f Fetcher, fetchMode fetcher.Mode, clients map[search.ProviderType]search.Client) []Stage {
	return []Stage{
		&ValidateStage{Registry: reg},
		&AcquireStage{Registry: reg, Fetcher: f, FetchMode: fetchMode, Clients: clients},
		&ParseStage{Factory: factory},
	}
}
