package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HRemonen/scrapyard"
	"github.com/HRemonen/scrapyard/selector"
)

// NewQueryCmd creates the query command.
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <url|file|->",
		Short: "Run an XPath or CSS query against one page",
		Long: `Query fetches a page, or reads it from a file or stdin, runs a single
XPath or CSS query against it and prints every match on its own line.

Examples:
  # Titles of the chapters on a page
  scrapyard query --css 'h4.chapter__title::text' https://example.com/courses/go

  # Link targets in a saved page
  scrapyard query --xpath '//a/@href' page.html`,
		Args: cobra.ExactArgs(1),
		RunE: runQueryCmd,
	}

	cmd.Flags().StringP("xpath", "x", "", "XPath 1.0 expression")
	cmd.Flags().StringP("css", "s", "", "CSS selector, optionally ending in ::text or ::attr(name)")
	cmd.Flags().Bool("text", false, "Print the text of each match including its descendants")
	cmd.Flags().String("user-agent", scrapyard.DefaultUserAgent, "User-Agent header for fetched pages")
	cmd.Flags().Duration("timeout", 30*time.Second, "Timeout for fetching the page")
	cmd.Flags().Bool("ignore-robots", false, "Fetch the page even if robots.txt disallows it")
	cmd.MarkFlagsMutuallyExclusive("xpath", "css")
	cmd.MarkFlagsOneRequired("xpath", "css")

	return cmd
}

func runQueryCmd(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	res, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	doc, err := res.Selector()
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	allText, _ := cmd.Flags().GetBool("text")

	for _, match := range doc.Select(query) {
		value := match.Get()
		if allText && match.IsNode() {
			value = match.AllText()
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}

	return nil
}

func queryFromFlags(cmd *cobra.Command) (selector.Query, error) {
	if expr, _ := cmd.Flags().GetString("xpath"); expr != "" {
		return selector.NewXPath(expr)
	}

	expr, _ := cmd.Flags().GetString("css")

	return selector.NewCSS(expr)
}

// readSource returns the page at an http(s) URL, in a file, or on stdin for "-".
// Local pages have no headers, so only a meta tag can name their charset.
func readSource(cmd *cobra.Command, source string) (*scrapyard.Response, error) {
	var (
		body []byte
		err  error
	)

	switch {
	case source == "-":
		body, err = io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fetchSource(cmd, source)
	default:
		body, err = os.ReadFile(source) //nolint:gosec // User-provided page path is intentional
	}
	if err != nil {
		return nil, err
	}

	return &scrapyard.Response{Body: body}, nil
}

func fetchSource(cmd *cobra.Command, rawURL string) (*scrapyard.Response, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	userAgent, _ := cmd.Flags().GetString("user-agent")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ignoreRobots, _ := cmd.Flags().GetBool("ignore-robots")

	fetcher := scrapyard.NewHTTPFetcher(
		scrapyard.WithFetcherLogger(logger),
		scrapyard.WithUserAgent(userAgent),
		scrapyard.WithTimeout(timeout),
		scrapyard.WithIgnoreRobots(ignoreRobots),
	)

	req, err := scrapyard.NewRequest(rawURL, "query")
	if err != nil {
		return nil, err
	}

	return fetcher.Fetch(cmd.Context(), req)
}
