package pipeline

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/search"
)

// Fetched pairs a result with its page content. A failed fetch leaves
// Content empty and sets Error.
type Fetched struct {
	Result  search.Result `json:"result"`
	Content string        `json:"content,omitempty"`
	Error   string        `json:"error,omitempty"`
	Err     error         `json:"-"`
}

// SearchAndFetch searches, then fetches every result page with bounded
// concurrency. Output order follows rank; fetch failures never fail the
// call.
func (e *Engine) SearchAndFetch(ctx context.Context, text string, mode search.Mode, limit int, fetchMode fetcher.Mode, format fetcher.Format) ([]Fetched, error) {
	results, err := e.Search(ctx, text, mode, limit)
	if err != nil {
		return nil, err
	}
	return e.FetchAll(ctx, results, fetchMode, format), nil
}

// FetchAll fetches the page of each result
func (e *Engine) FetchAll(ctx context.Context, results []search.Result, mode fetcher.Mode, format fetcher.Format) []Fetched {
	out := make([]Fetched, len(results))

	var g errgroup.Group
	g.SetLimit(e.fetchConcurrency)

	for i, r := range results {
		out[i].Result = r
		g.Go(func() error {
			content, err := e.fetcher.Fetch(ctx, r.URL, mode, format)
			e.metrics.ObserveFetch(err == nil)
			if err != nil {
				log.WithFields(log.Fields{
					"url":  r.URL,
					"rank": r.Rank,
				}).Warnf("fetch failed: %v", err)
				out[i].Err = err
				out[i].Error = err.Error()
				return nil
			}
			out[i].Content = content
			return nil
		})
	}
	g.Wait()

	return out
}
