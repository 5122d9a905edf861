package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/HRemonen/scrapyard/internal/logging"
)

// NewRootCmd creates the root command for scrapyard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrapyard",
		Short: "Declarative web scraper",
		Long: `scrapyard crawls websites from seed pages, dispatching every page to the
rules of its kind, and collects the extracted records keyed by name.

Spiders are defined in YAML. Use query to try out XPath and CSS selectors
against a single page before putting them in a spider.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text, json or logfmt")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the logger from the global flags. Logs go to stderr so
// that results written to stdout stay clean.
func newLogger(cmd *cobra.Command) (*log.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose = false
	}

	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format = ""
	}

	return logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: verbose, Format: format})
}
