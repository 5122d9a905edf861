package config

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/HRemonen/scrapyard"
	"github.com/HRemonen/scrapyard/selector"
)

// Default configuration values.
const (
	// DefaultName names a run when the definition does not.
	DefaultName = "scrapyard"

	// DefaultWorkers fetches one page at a time.
	DefaultWorkers = 1

	// DefaultBurst is the burst size used with a rate limit.
	DefaultBurst = 1

	// DefaultTimeout bounds each request, including reading the body.
	DefaultTimeout = 30 * time.Second
)

// File is a spider definition.
type File struct {
	// Name identifies the spider in logs and in the SQLite runs table.
	Name string `yaml:"name"`

	// Seeds are the pages the crawl starts from.
	Seeds []Seed `yaml:"seeds"`

	// Handlers maps each page kind to the rules applied to its pages.
	Handlers map[string]Handler `yaml:"handlers"`

	Limits Limits `yaml:"limits"`
	Fetch  Fetch  `yaml:"fetch"`
	Output Output `yaml:"output"`
}

// Seed is a start page and the kind its response is handled as.
type Seed struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"`
}

// Handler holds the rules applied to one page kind.
// A handler with no rules makes the kind terminal.
type Handler struct {
	// Follow rules schedule links found on the page.
	Follow []FollowRule `yaml:"follow"`

	// Record, when set, extracts one record per page.
	Record *RecordRule `yaml:"record"`
}

// Query is a selector expression. Exactly one of XPath and CSS is set.
type Query struct {
	XPath string `yaml:"xpath"`
	CSS   string `yaml:"css"`
}

// FollowRule schedules the links a query selects, or every anchor on the
// page when AllLinks is set, with the handler for Kind. With Records set an
// all_links rule also emits one record per link, keyed by the absolute URL
// and holding the anchor text.
type FollowRule struct {
	Query    `yaml:",inline"`
	AllLinks bool   `yaml:"all_links"`
	Records  bool   `yaml:"records"`
	Kind     string `yaml:"kind"`
}

// RecordRule extracts a record keyed by the first match of Key, holding
// every match of Values. Pages where Key matches nothing produce no record.
type RecordRule struct {
	Key    Query `yaml:"key"`
	Values Query `yaml:"values"`
}

// Limits bounds the crawl.
type Limits struct {
	// DepthLimit is the maximum link depth. 0 means unlimited.
	DepthLimit int `yaml:"depth_limit"`

	// MaxPages is the maximum number of pages scheduled. 0 means unlimited.
	MaxPages int `yaml:"max_pages"`

	// Workers is the number of pages fetched concurrently.
	Workers int `yaml:"workers"`

	// Rate is the number of requests per second. 0 means unlimited.
	Rate float64 `yaml:"rate"`

	// Burst is the number of requests allowed above Rate at once.
	Burst int `yaml:"burst"`

	// SameHost keeps the crawl on the hosts of the seeds.
	SameHost bool `yaml:"same_host"`

	AllowedURLs    []string `yaml:"allowed_urls"`
	DisallowedURLs []string `yaml:"disallowed_urls"`
}

// Fetch configures the HTTP fetcher.
type Fetch struct {
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	MaxBodySize  int64         `yaml:"max_body_size"`
	IgnoreRobots bool          `yaml:"ignore_robots"`
}

// Output names the files results are written to. Empty paths are skipped.
type Output struct {
	// JSON is the path of the key to values JSON document. "-" writes to stdout.
	JSON string `yaml:"json"`

	// Links is the path of the newline-delimited list of scheduled URLs.
	Links string `yaml:"links"`

	// SQLite is the path of a SQLite database the run is appended to.
	SQLite string `yaml:"sqlite"`
}

// ApplyDefaults fills unset fields with their default values.
func (f *File) ApplyDefaults() {
	if f.Name == "" {
		f.Name = DefaultName
	}
	if f.Handlers == nil {
		f.Handlers = make(map[string]Handler)
	}
	if f.Limits.Workers == 0 {
		f.Limits.Workers = DefaultWorkers
	}
	if f.Limits.Burst == 0 {
		f.Limits.Burst = DefaultBurst
	}
	if f.Fetch.UserAgent == "" {
		f.Fetch.UserAgent = scrapyard.DefaultUserAgent
	}
	if f.Fetch.Timeout == 0 {
		f.Fetch.Timeout = DefaultTimeout
	}
	if f.Fetch.MaxBodySize == 0 {
		f.Fetch.MaxBodySize = scrapyard.DefaultMaxBodySize
	}
}

// Validate checks the definition for consistency and compiles every query.
func (f *File) Validate() error {
	if len(f.Seeds) == 0 {
		return ErrNoSeeds
	}
	if len(f.Handlers) == 0 {
		return ErrNoHandlers
	}

	for i, s := range f.Seeds {
		if s.URL == "" {
			return fmt.Errorf("seed %d: %w", i, ErrInvalidSeed)
		}
		if _, err := url.Parse(s.URL); err != nil {
			return fmt.Errorf("seed %d: %w: %v", i, ErrInvalidSeed, err)
		}
		if _, ok := f.Handlers[s.Kind]; !ok {
			return fmt.Errorf("seed %d: %w: %q", i, ErrUnknownKind, s.Kind)
		}
	}

	for _, kind := range f.Kinds() {
		if err := f.validateHandler(kind, f.Handlers[kind]); err != nil {
			return err
		}
	}

	if f.Limits.Workers < 1 {
		return ErrInvalidWorkers
	}
	if f.Limits.DepthLimit < 0 || f.Limits.MaxPages < 0 || f.Limits.Rate < 0 {
		return ErrInvalidLimit
	}
	if f.Fetch.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if f.Fetch.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

func (f *File) validateHandler(kind string, h Handler) error {
	for i, rule := range h.Follow {
		if _, ok := f.Handlers[rule.Kind]; !ok {
			return fmt.Errorf("handler %q follow %d: %w: %q", kind, i, ErrUnknownKind, rule.Kind)
		}
		if rule.AllLinks {
			if !rule.Query.IsZero() {
				return fmt.Errorf("handler %q follow %d: %w", kind, i, ErrInvalidFollow)
			}
			continue
		}
		if rule.Records {
			return fmt.Errorf("handler %q follow %d: %w", kind, i, ErrInvalidFollow)
		}
		if _, err := rule.Query.Compile(); err != nil {
			return fmt.Errorf("handler %q follow %d: %w", kind, i, err)
		}
	}

	if h.Record != nil {
		if _, err := h.Record.Key.Compile(); err != nil {
			return fmt.Errorf("handler %q record key: %w", kind, err)
		}
		if _, err := h.Record.Values.Compile(); err != nil {
			return fmt.Errorf("handler %q record values: %w", kind, err)
		}
	}

	return nil
}

// Kinds returns the defined page kinds in sorted order.
func (f *File) Kinds() []string {
	kinds := make([]string, 0, len(f.Handlers))
	for k := range f.Handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	return kinds
}

// IsZero reports whether neither expression is set.
func (q Query) IsZero() bool {
	return q.XPath == "" && q.CSS == ""
}

// Compile builds the selector query.
func (q Query) Compile() (selector.Query, error) {
	switch {
	case q.XPath != "" && q.CSS == "":
		return selector.NewXPath(q.XPath)
	case q.CSS != "" && q.XPath == "":
		return selector.NewCSS(q.CSS)
	default:
		return selector.Query{}, ErrQueryLang
	}
}
