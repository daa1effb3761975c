package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinfoilsh/websearch/config"
	"github.com/tinfoilsh/websearch/search"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "websearch",
		Short:         "Query web search providers through one interface",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
			*cfg = *config.Load()
			setupLogging(cfg)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSearchCmd(cfg))
	root.AddCommand(newSearchAndFetchCmd(cfg))
	root.AddCommand(newServeCmd(cfg))
	return root
}

func setupLogging(cfg *config.Config) {
	log.SetLevel(cfg.Level())
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stderr)
}

// printError writes "<kind>: <message>" to w
func printError(w io.Writer, err error) {
	kind := search.Kind(err)
	if kind == "internal_error" {
		kind = "error"
	}
	color.New(color.FgRed, color.Bold).Fprintf(w, "%s:", kind)
	fmt.Fprintf(w, " %v\n", err)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
