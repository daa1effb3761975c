package search

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates invalid caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// UnsupportedModeError indicates a provider/mode pair that is not registered
type UnsupportedModeError struct {
	Provider ProviderType
	Mode     Mode
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("provider %s does not support %s", e.Provider, e.Mode)
}

// AuthError indicates a missing or rejected API key
type AuthError struct {
	Provider   ProviderType
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s rejected credentials (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s authentication failed: %s", e.Provider, e.Message)
}

// NetworkError indicates a transport failure or an unexpected HTTP status
type NetworkError struct {
	Provider   ProviderType
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError indicates the result container is missing or the payload is malformed
type ParseError struct {
	Provider ProviderType
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s response: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("failed to parse %s response: %s", e.Provider, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the deadline for a search ran out
type TimeoutError struct {
	Provider ProviderType
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("search timed out: %v", e.Err)
	}
	return fmt.Sprintf("%s timed out: %v", e.Provider, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Attempt is one failed provider attempt
type Attempt struct {
	Provider ProviderType
	Err      error
}

// AggregateFailureError is returned when every eligible provider failed
type AggregateFailureError struct {
	Attempts []Attempt
	Skipped  []ProviderType
}

func (e *AggregateFailureError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no eligible provider (skipped: %s)", joinProviders(e.Skipped))
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As
func (e *AggregateFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

func joinProviders(ps []ProviderType) string {
	if len(ps) == 0 {
		return "none"
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Kind returns a stable snake_case name for the error's category
func Kind(err error) string {
	var (
		aggregateErr   *AggregateFailureError
		validationErr  *ValidationError
		unsupportedErr *UnsupportedModeError
		authErr        *AuthError
		timeoutErr     *TimeoutError
		networkErr     *NetworkError
		parseErr       *ParseError
	)

	// Aggregate first: its Unwrap would otherwise match a member's kind.
	switch {
	case err == nil:
		return ""
	case errors.As(err, &aggregateErr):
		return "aggregate_failure_error"
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &unsupportedErr):
		return "unsupported_mode_error"
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &timeoutErr):
		return "timeout_error"
	case errors.As(err, &networkErr):
		return "network_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	}
	return "internal_error"
}

// Fallbackable reports whether err should move autoswitch to the next
// provider. Caller mistakes never do.
func Fallbackable(err error) bool {
	switch Kind(err) {
	case "auth_error", "network_error", "parse_error", "timeout_error":
		return true
	}
	return false
}
