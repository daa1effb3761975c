package pipeline

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tinfoilsh/websearch/metrics"
	"github.com/tinfoilsh/websearch/search"
)

// Pipeline runs one provider attempt through its stages. It holds no
// per-call state and is safe for concurrent use.
type Pipeline struct {
	stages  []Stage
	configs map[search.ProviderType]search.ProviderConfig
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewPipeline creates a pipeline. configs is copied; m may be nil.
func NewPipeline(stages []Stage, configs map[search.ProviderType]search.ProviderConfig, timeout time.Duration, m *metrics.Metrics) *Pipeline {
	cfgs := make(map[search.ProviderType]search.ProviderConfig, len(configs))
	for p, c := range configs {
		cfgs[p] = c
	}
	return &Pipeline{
		stages:  stages,
		configs: cfgs,
		timeout: timeout,
		metrics: m,
	}
}

// Run searches provider for query. A deadline hit in any stage discards the
// attempt and returns TimeoutError.
func (p *Pipeline) Run(ctx context.Context, provider search.ProviderType, query search.Query) ([]search.Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	pctx := NewContext(ctx, provider, p.configs[provider], query)
	logger := log.WithFields(log.Fields{
		"search_id": pctx.SearchID,
		"provider":  provider,
		"mode":      query.Mode,
	})
	start := time.Now()

	for _, stage := range p.stages {
		err := stage.Execute(pctx)
		if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ctx.Err()
		}
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && search.Kind(err) != "timeout_error" {
				err = &search.TimeoutError{Provider: provider, Err: err}
			}
			pctx.State.Transition(StateFailed, map[string]any{
				"stage": stage.Name(),
				"error": err.Error(),
			})
			p.observe(provider, query.Mode, search.Kind(err), start)
			logger.WithField("stage", stage.Name()).Debugf("attempt failed: %v", err)
			return nil, &PipelineError{Stage: stage.Name(), Provider: provider, Err: err}
		}
		logger.WithField("state", pctx.State.Current()).Debug("stage completed")
	}

	pctx.State.Transition(StateCompleted, map[string]any{"results": len(pctx.Results)})

	outcome := "success"
	if len(pctx.Results) == 0 {
		outcome = "empty"
	}
	p.observe(provider, query.Mode, outcome, start)
	logger.WithFields(log.Fields{
		"results":  len(pctx.Results),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("search completed")

	return pctx.Results, nil
}

func (p *Pipeline) observe(provider search.ProviderType, mode search.Mode, outcome string, start time.Time) {
	p.metrics.ObserveAttempt(string(provider), string(mode), outcome, time.Since(start))
}

// Stages returns the pipeline's stages (for testing)
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Timeout returns the per-attempt timeout
func (p *Pipeline) Timeout() time.Duration {
	return p.timeout
}

// Config returns the configuration used for provider
func (p *Pipeline) Config(provider search.ProviderType) search.ProviderConfig {
	return p.configs[provider]
}
