package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"

	"github.com/tinfoilsh/websearch/config"
	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/metrics"
	"github.com/tinfoilsh/websearch/parser"
	"github.com/tinfoilsh/websearch/pipeline"
	"github.com/tinfoilsh/websearch/search"
)

// overrides are command-line values that take precedence over config
type overrides struct {
	engine     string
	autoswitch string
}

func (o overrides) apply(cfg *config.Config) *config.Config {
	c := *cfg
	if o.engine != "" {
		c.Engine = o.engine
	}
	if o.autoswitch != "" {
		c.Autoswitch = o.autoswitch
	}
	return &c
}

// buildEngine wires an engine and the registry holding its metrics
func buildEngine(cfg *config.Config) (*pipeline.Engine, *prometheus.Registry, error) {
	primary, err := cfg.Primary()
	if err != nil {
		return nil, nil, err
	}
	fallbacks, err := cfg.FallbackProviders()
	if err != nil {
		return nil, nil, err
	}
	webFetchMode, err := fetcher.ParseMode(cfg.FetchMode)
	if err != nil {
		return nil, nil, &search.ValidationError{Field: "fetch_mode", Message: err.Error()}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	registry := search.DefaultRegistry()

	var rules map[search.ProviderType]parser.Rules
	if cfg.CustomRulesFile != "" {
		if rules, err = config.LoadRules(cfg.CustomRulesFile); err != nil {
			return nil, nil, err
		}
	}
	factory, err := parser.NewFactory(registry, parser.DefaultBindings(), rules)
	if err != nil {
		return nil, nil, err
	}

	configs := cfg.ProviderConfigs()
	clients, err := search.NewClients(registry, configs)
	if err != nil {
		return nil, nil, err
	}
	breaker := search.BreakerSettings{
		MaxFailures: uint32(max(cfg.BreakerMaxFailures, 1)),
		Timeout:     cfg.BreakerTimeout,
		OnStateChange: func(p search.ProviderType, from, to gobreaker.State) {
			m.SetBreakerState(string(p), float64(to))
		},
	}
	for p, c := range clients {
		clients[p] = search.WithBreaker(c, breaker)
	}

	f, err := fetcher.New(fetcher.Options{
		UserAgent:  cfg.FetchUserAgent,
		Timeout:    cfg.FetchTimeout,
		Proxy:      cfg.Proxy,
		ChromePath: cfg.ChromePath,
		RemoteURL:  cfg.WebDriverURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating fetcher: %w", err)
	}

	policy := pipeline.NewPolicy(pipeline.ParseStrategy(cfg.Autoswitch), primary, fallbacks)
	policy.FallbackOnEmpty = cfg.FallbackOnEmpty

	engine, err := pipeline.NewEngine(pipeline.Options{
		Registry:         registry,
		Factory:          factory,
		Clients:          clients,
		Configs:          configs,
		Fetcher:          f,
		WebFetchMode:     webFetchMode,
		Policy:           policy,
		Timeout:          cfg.Timeout,
		FetchConcurrency: cfg.FetchConcurrency,
		Metrics:          m,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, promReg, nil
}
