package api

import (
	"context"
	"time"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/pipeline"
	"github.com/tinfoilsh/websearch/search"
)

const (
	MaxRequestBodySize = 1 << 20 // 1 MB
	RequestTimeout     = 2 * time.Minute
)

// Searcher is the part of *pipeline.Engine the handlers use
type Searcher interface {
	SearchOutcome(ctx context.Context, query search.Query) (*pipeline.Outcome, error)
	FetchAll(ctx context.Context, results []search.Result, mode fetcher.Mode, format fetcher.Format) []pipeline.Fetched
}

// Defaults fill fields a request leaves out
type Defaults struct {
	Mode      search.Mode
	Limit     int
	FetchMode fetcher.Mode
	Format    fetcher.Format
}

// Server holds all dependencies for the HTTP handlers
type Server struct {
	Engine   Searcher
	Defaults Defaults
}

// SearchRequest is the body of POST /v1/search
type SearchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchAndFetchRequest is the body of POST /v1/search_and_fetch
type SearchAndFetchRequest struct {
	SearchRequest
	FetchMode string `json:"fetch_mode,omitempty"`
	Format    string `json:"format,omitempty"`
}

// AttemptFailure describes a provider that failed before the one that
// answered
type AttemptFailure struct {
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Message  string `json:"message"`
}

// SearchResponse is returned by /v1/search
type SearchResponse struct {
	ID       string           `json:"id"`
	Provider string           `json:"provider"`
	Results  []search.Result  `json:"results"`
	Failures []AttemptFailure `json:"failures,omitempty"`
	Skipped  []string         `json:"skipped,omitempty"`
}

// SearchAndFetchResponse is returned by /v1/search_and_fetch
type SearchAndFetchResponse struct {
	ID       string             `json:"id"`
	Provider string             `json:"provider"`
	Items    []pipeline.Fetched `json:"items"`
	Failures []AttemptFailure   `json:"failures,omitempty"`
	Skipped  []string           `json:"skipped,omitempty"`
}
