package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinfoilsh/websearch/api"
	"github.com/tinfoilsh/websearch/config"
	"github.com/tinfoilsh/websearch/fetcher"
	"github.com/tinfoilsh/websearch/pipeline"
	"github.com/tinfoilsh/websearch/search"
)

// searchFlags are shared by search and search-and-fetch
type searchFlags struct {
	query  string
	mode   string
	limit  int
	output string
	overrides
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search query")
	cmd.Flags().StringVar(&f.mode, "mode", "", "webquery or apiquery (default from SEARCH_MODE)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of results (default from SEARCH_LIMIT)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "primary search engine (default from SEARCH_ENGINE)")
	cmd.Flags().StringVar(&f.autoswitch, "autoswitch", "", "smart or none (default from SEARCH_AUTOSWITCH)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "output format: text|json")
	cmd.MarkFlagRequired("query")
}

// resolve merges flags over cfg and builds the query and engine
func (f *searchFlags) resolve(cfg *config.Config) (search.Query, *pipeline.Engine, error) {
	cfg = f.overrides.apply(cfg)

	modeName := cfg.Mode
	if f.mode != "" {
		modeName = f.mode
	}
	mode, err := search.ParseMode(modeName)
	if err != nil {
		return search.Query{}, nil, err
	}
	limit := cfg.Limit
	if f.limit != 0 {
		limit = f.limit
	}
	q := search.Query{Text: f.query, Mode: mode, Limit: limit}
	if err := q.Validate(); err != nil {
		return q, nil, err
	}
	if f.output != "text" && f.output != "json" {
		return q, nil, &search.ValidationError{Field: "output", Message: fmt.Sprintf("unknown output format %q", f.output)}
	}

	engine, _, err := buildEngine(cfg)
	return q, engine, err
}

func newSearchCmd(cfg *config.Config) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search and print normalized results",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, engine, err := flags.resolve(cfg)
			if err != nil {
				return err
			}
			out, err := engine.SearchOutcome(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), flags.output, out)
		},
	}
	flags.register(cmd)
	return cmd
}

func newSearchAndFetchCmd(cfg *config.Config) *cobra.Command {
	var (
		flags     searchFlags
		fetchMode string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "search-and-fetch",
		Short: "Search, then fetch the page behind every result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fetchMode == "" {
				fetchMode = cfg.FetchMode
			}
			if format == "" {
				format = cfg.FetchFormat
			}
			mode, err := fetcher.ParseMode(fetchMode)
			if err != nil {
				return &search.ValidationError{Field: "fetch_mode", Message: err.Error()}
			}
			f, err := fetcher.ParseFormat(format)
			if err != nil {
				return &search.ValidationError{Field: "format", Message: err.Error()}
			}

			q, engine, err := flags.resolve(cfg)
			if err != nil {
				return err
			}
			items, err := engine.SearchAndFetch(cmd.Context(), q.Text, q.Mode, q.Limit, mode, f)
			if err != nil {
				return err
			}
			return printFetched(cmd.OutOrStdout(), flags.output, items)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&fetchMode, "fetch-mode", "", "plain|head|headless|external (default from FETCH_MODE)")
	cmd.Flags().StringVar(&format, "format", "", "html|markdown|json|yaml (default from FETCH_FORMAT)")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve search over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	engine, promReg, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	mode, err := cfg.SearchMode()
	if err != nil {
		return err
	}
	fetchMode, err := fetcher.ParseMode(cfg.FetchMode)
	if err != nil {
		return err
	}
	format, err := fetcher.ParseFormat(cfg.FetchFormat)
	if err != nil {
		return err
	}

	srv := &api.Server{
		Engine: engine,
		Defaults: api.Defaults{
			Mode:      mode,
			Limit:     cfg.Limit,
			FetchMode: fetchMode,
			Format:    format,
		},
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Routes(promReg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: api.RequestTimeout + 30*time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		policy := engine.Policy()
		log.Infof("Starting on %s (engine: %s, mode: %s, autoswitch: %s)",
			cfg.ListenAddr, policy.Primary(), mode, policy.Strategy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func printOutcome(w io.Writer, output string, out *pipeline.Outcome) error {
	if output == "json" {
		return writeIndented(w, out)
	}
	if len(out.Results) == 0 {
		fmt.Fprintf(w, "No results from %s\n", out.Provider)
		return nil
	}
	for _, r := range out.Results {
		writeResult(w, r)
	}
	if len(out.Failures) > 0 {
		fmt.Fprintf(w, "(served by %s after %d failed attempt(s))\n", out.Provider, len(out.Failures))
	}
	return nil
}

func printFetched(w io.Writer, output string, items []pipeline.Fetched) error {
	if output == "json" {
		return writeIndented(w, items)
	}
	for _, item := range items {
		writeResult(w, item.Result)
		if item.Error != "" {
			fmt.Fprintf(w, "   [fetch failed: %s]\n\n", item.Error)
			continue
		}
		fmt.Fprintf(w, "%s\n\n%s\n", strings.TrimSpace(item.Content), strings.Repeat("-", 40))
	}
	return nil
}

func writeResult(w io.Writer, r search.Result) {
	fmt.Fprintf(w, "%d. %s\n   %s\n", r.Rank, r.Title, r.URL)
	if r.Snippet != "" {
		fmt.Fprintf(w, "   %s\n", r.Snippet)
	}
	fmt.Fprintln(w)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
