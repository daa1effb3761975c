package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tinfoilsh/websearch/search"
)

// Strategy decides what happens after a provider attempt fails
type Strategy string

const (
	// StrategySmart walks the provider order, skipping ineligible providers
	StrategySmart Strategy = "smart"
	// StrategyNone tries the primary provider only
	StrategyNone Strategy = "none"
)

// ParseStrategy maps a configured name to a Strategy. Anything other than
// "none" selects Smart.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "disabled":
		return StrategyNone
	case "smart", "":
	default:
		log.WithField("autoswitch", s).Warn("unknown autoswitch strategy, using smart")
	}
	return StrategySmart
}

// Policy is the fallback policy of a controller
type Policy struct {
	Strategy Strategy
	// Order is the primary provider followed by fallbacks, without duplicates
	Order []search.ProviderType
	// FallbackOnEmpty makes Smart treat a successful empty result as a reason
	// to try the next provider. Off by default.
	FallbackOnEmpty bool
}

// NewPolicy builds a policy with primary first and duplicates removed
func NewPolicy(strategy Strategy, primary search.ProviderType, fallbacks []search.ProviderType) Policy {
	seen := map[search.ProviderType]bool{primary: true}
	order := []search.ProviderType{primary}
	for _, p := range fallbacks {
		if seen[p] {
			continue
		}
		seen[p] = true
		order = append(order, p)
	}
	return Policy{Strategy: strategy, Order: order}
}

// Primary returns the configured provider
func (p Policy) Primary() search.ProviderType {
	if len(p.Order) == 0 {
		return ""
	}
	return p.Order[0]
}

// Runner performs a single provider attempt. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, provider search.ProviderType, query search.Query) ([]search.Result, error)
}

// Outcome is a successful search together with the attempts that failed
// before it
type Outcome struct {
	Provider search.ProviderType   `json:"provider"`
	Results  []search.Result       `json:"results"`
	Failures []search.Attempt      `json:"-"`
	Skipped  []search.ProviderType `json:"skipped,omitempty"`
}

// Controller applies a Policy on top of a Runner. Attempts are sequential.
type Controller struct {
	runner   Runner
	registry *search.Registry
	configs  map[search.ProviderType]search.ProviderConfig
	policy   Policy
}

// NewController creates a controller; configs decide eligibility only
func NewController(runner Runner, reg *search.Registry, configs map[search.ProviderType]search.ProviderConfig, policy Policy) *Controller {
	return &Controller{
		runner:   runner,
		registry: reg,
		configs:  configs,
		policy:   policy,
	}
}

// Policy returns the controller's policy
func (c *Controller) Policy() Policy {
	return c.policy
}

// Search runs query under the controller's policy
func (c *Controller) Search(ctx context.Context, query search.Query) (*Outcome, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	primary := c.policy.Primary()
	if primary == "" {
		return nil, &search.ValidationError{Field: "engine", Message: "no provider configured"}
	}
	if err := c.registry.Validate(primary, query.Mode); err != nil {
		return nil, err
	}

	if SearchID(ctx) == "" {
		ctx = WithSearchID(ctx, uuid.NewString())
	}

	if c.policy.Strategy == StrategyNone {
		results, err := c.runner.Run(ctx, primary, query)
		if err != nil {
			return nil, err
		}
		return &Outcome{Provider: primary, Results: results}, nil
	}
	return c.smart(ctx, query)
}

func (c *Controller) smart(ctx context.Context, query search.Query) (*Outcome, error) {
	logger := log.WithFields(log.Fields{
		"search_id": SearchID(ctx),
		"mode":      query.Mode,
	})

	var (
		failures []search.Attempt
		skipped  []search.ProviderType
		empty    *Outcome
	)

	for i, p := range c.policy.Order {
		if !c.registry.Eligible(p, query.Mode, c.configs[p]) {
			logger.WithField("provider", p).Debug("skipping ineligible provider")
			skipped = append(skipped, p)
			continue
		}

		results, err := c.runner.Run(ctx, p, query)
		if err != nil {
			if !search.Fallbackable(err) {
				return nil, err
			}
			failures = append(failures, search.Attempt{Provider: p, Err: err})
			if ctx.Err() != nil {
				// The caller's deadline covers every attempt; stop here.
				return nil, err
			}
			logger.WithFields(log.Fields{
				"provider": p,
				"attempt":  i + 1,
				"kind":     search.Kind(err),
			}).Warnf("provider attempt failed, trying next: %v", err)
			continue
		}

		outcome := &Outcome{Provider: p, Results: results, Failures: failures, Skipped: skipped}
		if len(results) == 0 && c.policy.FallbackOnEmpty {
			if empty == nil {
				empty = outcome
			}
			logger.WithField("provider", p).Info("empty result, trying next provider")
			continue
		}
		return outcome, nil
	}

	if empty != nil {
		empty.Failures = failures
		empty.Skipped = skipped
		return empty, nil
	}
	return nil, &search.AggregateFailureError{Attempts: failures, Skipped: skipped}
}
