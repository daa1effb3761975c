package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/pipeline"
	"github.com/tinfoilsh/websearch/search"
)

// RecoveryMiddleware catches panics and returns 500 instead of crashing
func RecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("panic recovered: %v", err)
				jsonError(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	jsonErrorResponse(w, code, map[string]any{
		"error": map[string]string{"message": message, "type": "invalid_request_error"},
	})
}

func jsonErrorResponse(w http.ResponseWriter, code int, body map[string]any) {
	log.WithField("code", code).Warn("error response")
	writeJSON(w, code, body)
}

// writeError maps err to its status code and error body
func writeError(w http.ResponseWriter, err error) {
	status, body := pipeline.ErrorResponse(err)
	jsonErrorResponse(w, status, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func parseRequestBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// Routes registers the handlers. gatherer backs /metrics and may be nil.
func (s *Server) Routes(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", RecoveryMiddleware(s.HandleSearch))
	mux.HandleFunc("/v1/search_and_fetch", RecoveryMiddleware(s.HandleSearchAndFetch))
	mux.HandleFunc("/health", s.HandleHealth)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.HandleRoot)
	return mux
}

func (s *Server) query(req SearchRequest) (search.Query, error) {
	q := search.Query{Text: req.Query, Mode: s.Defaults.Mode, Limit: req.Limit}
	if req.Mode != "" {
		mode, err := search.ParseMode(req.Mode)
		if err != nil {
			return q, err
		}
		q.Mode = mode
	}
	if q.Limit == 0 {
		q.Limit = s.Defaults.Limit
	}
	return q, q.Validate()
}

// decode reads a POST body into v, writing the error response itself
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := parseRequestBody(r, v); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) run(ctx context.Context, q search.Query) (string, *pipeline.Outcome, error) {
	id := uuid.NewString()
	ctx = pipeline.WithSearchID(ctx, id)

	log.WithFields(log.Fields{
		"search_id": id,
		"mode":      q.Mode,
		"limit":     q.Limit,
	}).Info("processing search")

	out, err := s.Engine.SearchOutcome(ctx, q)
	return id, out, err
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := s.query(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	id, out, err := s.run(ctx, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		ID:       id,
		Provider: string(out.Provider),
		Results:  nonNil(out.Results),
		Failures: failures(out),
		Skipped:  skipped(out),
	})
}

func (s *Server) HandleSearchAndFetch(w http.ResponseWriter, r *http.Request) {
	var req SearchAndFetchRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := s.query(req.SearchRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	mode, format := s.Defaults.FetchMode, s.Defaults.Format
	if req.FetchMode != "" {
		if mode, err = fetcher.ParseMode(req.FetchMode); err != nil {
			writeError(w, &search.ValidationError{Field: "fetch_mode", Message: err.Error()})
			return
		}
	}
	if req.Format != "" {
		if format, err = fetcher.ParseFormat(req.Format); err != nil {
			writeError(w, &search.ValidationError{Field: "format", Message: err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	id, out, err := s.run(ctx, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchAndFetchResponse{
		ID:       id,
		Provider: string(out.Provider),
		Items:    nonNil(s.Engine.FetchAll(ctx, out.Results, mode, format)),
		Failures: failures(out),
		Skipped:  skipped(out),
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"service": "websearch", "status": "ok"})
}

func failures(out *pipeline.Outcome) []AttemptFailure {
	var fs []AttemptFailure
	for _, a := range out.Failures {
		fs = append(fs, AttemptFailure{
			Provider: string(a.Provider),
			Type:     search.Kind(a.Err),
			Message:  a.Err.Error(),
		})
	}
	return fs
}

func skipped(out *pipeline.Outcome) []string {
	var names []string
	for _, p := range out.Skipped {
		names = append(names, string(p))
	}
	return names
}

// nonNil keeps empty result lists encoded as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
