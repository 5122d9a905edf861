// Package spider turns a declarative spider definition into a configured
// Harvester and its seed requests.
package spider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/HRemonen/scrapyard"
	"github.com/HRemonen/scrapyard/internal/config"
	"github.com/HRemonen/scrapyard/internal/parser"
	"github.com/HRemonen/scrapyard/selector"
)

// Spider is a Harvester built from a definition, ready to run.
type Spider struct {
	Name      string
	Harvester *scrapyard.Harvester
	Seeds     []*scrapyard.Request
}

// New builds a Spider from a validated definition.
func New(f *config.File, logger *log.Logger) (*Spider, error) {
	if logger == nil {
		logger = log.Default()
	}

	fetcher := scrapyard.NewHTTPFetcher(FetcherOptions(f, logger)...)
	h := scrapyard.NewHarvester(append(HarvesterOptions(f, logger), scrapyard.WithFetcher(fetcher))...)

	for _, kind := range f.Kinds() {
		fn, err := Compile(f.Handlers[kind])
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", kind, err)
		}
		h.Handle(scrapyard.Kind(kind), fn)
	}

	seeds := make([]*scrapyard.Request, 0, len(f.Seeds))
	for _, s := range f.Seeds {
		req, err := scrapyard.NewRequest(s.URL, scrapyard.Kind(s.Kind))
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", s.URL, err)
		}
		seeds = append(seeds, req)
	}

	return &Spider{Name: f.Name, Harvester: h, Seeds: seeds}, nil
}

// Run crawls from the seeds. See Harvester.Run.
func (s *Spider) Run(ctx context.Context) (*scrapyard.ResultStore, error) {
	return s.Harvester.Run(ctx, s.Seeds...)
}

// HarvesterOptions maps the crawl limits of a definition to Harvester options.
func HarvesterOptions(f *config.File, logger *log.Logger) []scrapyard.Options {
	return []scrapyard.Options{
		scrapyard.WithLogger(logger),
		scrapyard.WithDepthLimit(f.Limits.DepthLimit),
		scrapyard.WithMaxPages(f.Limits.MaxPages),
		scrapyard.WithWorkers(f.Limits.Workers),
		scrapyard.WithRateLimit(f.Limits.Rate, f.Limits.Burst),
		scrapyard.WithSameHost(f.Limits.SameHost),
		scrapyard.WithAllowedURLs(f.Limits.AllowedURLs),
		scrapyard.WithDisallowedURLs(f.Limits.DisallowedURLs),
	}
}

// FetcherOptions maps the fetch settings of a definition to HTTPFetcher options.
func FetcherOptions(f *config.File, logger *log.Logger) []scrapyard.FetcherOption {
	return []scrapyard.FetcherOption{
		scrapyard.WithFetcherLogger(logger),
		scrapyard.WithUserAgent(f.Fetch.UserAgent),
		scrapyard.WithTimeout(f.Fetch.Timeout),
		scrapyard.WithRetries(f.Fetch.Retries),
		scrapyard.WithMaxBodySize(f.Fetch.MaxBodySize),
		scrapyard.WithIgnoreRobots(f.Fetch.IgnoreRobots),
	}
}

type followRule struct {
	query    selector.Query
	allLinks bool
	records  bool
	kind     scrapyard.Kind
}

type recordRule struct {
	key    selector.Query
	values selector.Query
}

// Compile builds the Handler applying the rules of one page kind.
func Compile(h config.Handler) (scrapyard.Handler, error) {
	follows := make([]followRule, 0, len(h.Follow))
	for i, f := range h.Follow {
		rule := followRule{allLinks: f.AllLinks, records: f.Records, kind: scrapyard.Kind(f.Kind)}
		if !f.AllLinks {
			q, err := f.Query.Compile()
			if err != nil {
				return nil, fmt.Errorf("follow %d: %w", i, err)
			}
			rule.query = q
		}
		follows = append(follows, rule)
	}

	var record *recordRule
	if h.Record != nil {
		key, err := h.Record.Key.Compile()
		if err != nil {
			return nil, fmt.Errorf("record key: %w", err)
		}
		values, err := h.Record.Values.Compile()
		if err != nil {
			return nil, fmt.Errorf("record values: %w", err)
		}
		record = &recordRule{key: key, values: values}
	}

	return func(ctx context.Context, res *scrapyard.Response) (scrapyard.Result, error) {
		doc, err := res.Selector()
		if err != nil {
			return scrapyard.Result{}, err
		}

		var out scrapyard.Result

		for _, rule := range follows {
			links, err := rule.links(doc, res)
			if err != nil {
				return scrapyard.Result{}, err
			}
			for _, link := range links {
				out.Follows = append(out.Follows, res.Follow(link.Href, rule.kind))
				if rule.records {
					out.Records = append(out.Records, scrapyard.Record{Key: link.Href, Values: trimmed([]string{link.Text})})
				}
			}
		}

		if record != nil {
			if rec, ok := record.extract(doc); ok {
				out.Records = append(out.Records, rec)
			}
		}

		return out, nil
	}, nil
}

func (r followRule) links(doc *selector.Selector, res *scrapyard.Response) ([]parser.Link, error) {
	if r.allLinks {
		return parser.ExtractLinks(bytes.NewReader(res.Body), res.AbsoluteURL)
	}

	hrefs := trimmed(doc.Select(r.query).GetAll())
	links := make([]parser.Link, 0, len(hrefs))
	for _, href := range hrefs {
		links = append(links, parser.Link{Href: href})
	}

	return links, nil
}

// extract reports false when the key matches nothing or only whitespace.
func (r recordRule) extract(doc *selector.Selector) (scrapyard.Record, bool) {
	key := strings.TrimSpace(doc.Select(r.key).Get())
	if key == "" {
		return scrapyard.Record{}, false
	}

	return scrapyard.Record{Key: key, Values: trimmed(doc.Select(r.values).GetAll())}, true
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}
