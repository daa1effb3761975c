package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinfoilsh/websearch/search"
)

type searchIDKey struct{}

// WithSearchID tags ctx so every attempt of one search logs the same ID
func WithSearchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, searchIDKey{}, id)
}

// SearchID returns the ID attached to ctx, or "" if there is none
func SearchID(ctx context.Context) string {
	id, _ := ctx.Value(searchIDKey{}).(string)
	return id
}

// Context carries one provider attempt through the stages
type Context struct {
	context.Context

	SearchID string
	Provider search.ProviderType
	Config   search.ProviderConfig
	Query    search.Query

	// URL is the results page requested in web mode
	URL     string
	Payload []byte
	Results []search.Result

	State StateTracker
}

// NewContext creates a pipeline context, generating a search ID when ctx
// does not carry one
func NewContext(ctx context.Context, p search.ProviderType, cfg search.ProviderConfig, q search.Query) *Context {
	id := SearchID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return &Context{
		Context:  ctx,
		SearchID: id,
		Provider: p,
		Config:   cfg,
		Query:    q,
		State:    NewStateTracker(),
	}
}
