package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings
const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

// BreakerSettings configures WithBreaker
type BreakerSettings struct {
	// MaxFailures is the number of consecutive transport failures that opens the circuit
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is let through
	Timeout  time.Duration
	Interval time.Duration
	// OnStateChange is called after the logging hook, if set
	OnStateChange func(p ProviderType, from, to gobreaker.State)
}

// BreakerClient wraps a Client so repeated transport failures fail fast
type BreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// WithBreaker wraps c with a circuit breaker. Only network failures and
// timeouts count against the circuit; rejected keys and bad payloads do not.
func WithBreaker(c Client, s BreakerSettings) *BreakerClient {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := s.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	provider := c.Provider()
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "search:" + string(provider),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
			if s.OnStateChange != nil {
				s.OnStateChange(provider, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			var networkErr *NetworkError
			var timeoutErr *TimeoutError
			return !errors.As(err, &networkErr) && !errors.As(err, &timeoutErr)
		},
	})

	return &BreakerClient{inner: c, breaker: cb}
}

func (b *BreakerClient) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	body, err := b.breaker.Execute(func() ([]byte, error) {
		return b.inner.Search(ctx, query, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &NetworkError{Provider: b.inner.Provider(), Err: fmt.Errorf("circuit open: %w", err)}
	}
	return body, err
}

func (b *BreakerClient) Provider() ProviderType { return b.inner.Provider() }

func (b *BreakerClient) Name() string { return b.inner.Name() }

// State returns the current breaker state
func (b *BreakerClient) State() gobreaker.State {
	return b.breaker.State()
}
