// Package logging builds the command line logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// ErrUnknownFormat is returned for a log format other than text, json or logfmt.
var ErrUnknownFormat = errors.New("unknown log format")

// Options configures New.
type Options struct {
	// Verbose enables debug output.
	Verbose bool
	// Format is one of "text" (the default), "json" or "logfmt".
	Format string
}

// New returns a logger writing to w at info level, or debug level when
// verbose output is requested.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "scrapyard",
	}), nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch format {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
