package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/HRemonen/scrapyard"
	"github.com/HRemonen/scrapyard/internal/config"
	"github.com/HRemonen/scrapyard/internal/sink"
	"github.com/HRemonen/scrapyard/internal/spider"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a spider defined in a YAML file",
		Long: `Crawl runs the spider defined in a YAML file and writes the collected
records once the crawl has finished.

Without any output configured the records are printed to stdout as JSON.

Spider file example:
  name: courses
  seeds:
    - url: https://example.com/courses
      kind: listing
  handlers:
    listing:
      follow:
        - xpath: //div[@class="course-block"]/a/@href
          kind: course
    course:
      record:
        key:
          xpath: //h1/text()
        values:
          css: h4.chapter__title::text
  limits:
    workers: 4
    rate: 2
  output:
    json: courses.json`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Spider file path")
	cmd.Flags().StringP("json", "j", "", "Write records as JSON to this path (- for stdout)")
	cmd.Flags().StringP("links", "l", "", "Write the scheduled URLs to this path (- for stdout)")
	cmd.Flags().String("sqlite", "", "Append the run to this SQLite database")
	cmd.Flags().IntP("workers", "w", 0, "Number of pages fetched concurrently (overrides the spider file)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	f, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := applyCrawlFlags(cmd, f); err != nil {
		return err
	}

	if err := f.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd.OutOrStdout(), f, logger)
}

func applyCrawlFlags(cmd *cobra.Command, f *config.File) error {
	if cmd.Flags().Changed("json") {
		f.Output.JSON, _ = cmd.Flags().GetString("json")
	}
	if cmd.Flags().Changed("links") {
		f.Output.Links, _ = cmd.Flags().GetString("links")
	}
	if cmd.Flags().Changed("sqlite") {
		f.Output.SQLite, _ = cmd.Flags().GetString("sqlite")
	}
	if cmd.Flags().Changed("workers") {
		workers, err := cmd.Flags().GetInt("workers")
		if err != nil {
			return err
		}
		f.Limits.Workers = workers
	}

	return nil
}

// runCrawl runs the spider and writes its outputs. Outputs are written even
// when the crawl is interrupted; the interruption is returned afterwards.
func runCrawl(ctx context.Context, stdout io.Writer, f *config.File, logger *log.Logger) error {
	s, err := spider.New(f, logger)
	if err != nil {
		return err
	}

	logger.Info("starting crawl", "spider", s.Name, "seeds", len(s.Seeds), "workers", f.Limits.Workers)

	store, crawlErr := s.Run(ctx)
	if store == nil {
		return crawlErr
	}
	if errors.Is(crawlErr, context.Canceled) {
		logger.Warn("crawl interrupted, writing partial results")
	}

	if err := writeOutputs(ctx, stdout, f, store, logger); err != nil {
		return err
	}

	return crawlErr
}

func writeOutputs(ctx context.Context, stdout io.Writer, f *config.File, store *scrapyard.ResultStore, logger *log.Logger) error {
	out := f.Output
	if out.JSON == "" && out.Links == "" && out.SQLite == "" {
		out.JSON = "-"
	}

	if out.JSON != "" {
		if err := writeTo(stdout, out.JSON, store, sink.WriteJSON, sink.WriteJSONFile); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
		logger.Debug("wrote records", "path", out.JSON, "keys", store.Len())
	}

	if out.Links != "" {
		if err := writeTo(stdout, out.Links, store, sink.WriteLinks, sink.WriteLinksFile); err != nil {
			return fmt.Errorf("failed to write links: %w", err)
		}
		logger.Debug("wrote links", "path", out.Links, "links", len(store.Links()))
	}

	if out.SQLite != "" {
		db, err := sink.OpenDB(out.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()

		// The run is stored even if ctx was canceled.
		id, err := db.SaveRun(context.WithoutCancel(ctx), f.Name, store)
		if err != nil {
			return err
		}
		logger.Info("saved run", "path", out.SQLite, "run", id)
	}

	return nil
}

func writeTo(
	stdout io.Writer,
	path string,
	store *scrapyard.ResultStore,
	write func(io.Writer, *scrapyard.ResultStore) error,
	writeFile func(string, *scrapyard.ResultStore) error,
) error {
	if path == "-" {
		return write(stdout, store)
	}

	return writeFile(path, store)
}
