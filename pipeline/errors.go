package pipeline

import (
	"fmt"
	"net/http"

	"github.com/tinfoilsh/websearch/search"
)

// PipelineError wraps errors that occur during pipeline execution
type PipelineError struct {
	Stage    string
	Provider search.ProviderType
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed at stage %q: %v", e.Provider, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

var statusByKind = map[string]int{
	"validation_error":        http.StatusBadRequest,
	"unsupported_mode_error":  http.StatusBadRequest,
	"auth_error":              http.StatusUnauthorized,
	"parse_error":             http.StatusBadGateway,
	"network_error":           http.StatusBadGateway,
	"aggregate_failure_error": http.StatusBadGateway,
	"timeout_error":           http.StatusGatewayTimeout,
}

// ErrorResponse maps an error to an HTTP status code and response body
func ErrorResponse(err error) (int, map[string]any) {
	kind := search.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		return http.StatusInternalServerError, map[string]any{
			"error": map[string]string{
				"message": "internal server error",
				"type":    "internal_error",
			},
		}
	}

	return status, map[string]any{
		"error": map[string]string{
			"message": err.Error(),
			"type":    kind,
		},
	}
}
