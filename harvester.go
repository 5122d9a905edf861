/*
Copyright 2024 Henri Remonen

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package scrapyard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	// ErrForbiddenURL is returned when a URL is not allowed by the AllowedURLs and DisallowedURLs settings.
	ErrForbiddenURL = errors.New("URL is forbidden")
	// ErrVisitedURL is returned when a URL has already been visited.
	ErrVisitedURL = errors.New("URL has already been visited")
	// ErrDepthLimitExceeded is returned when the maximum depth limit is exceeded.
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")
	// ErrPageLimitReached is returned when the maximum number of pages has been scheduled.
	ErrPageLimitReached = errors.New("page limit reached")
	// ErrOtherHost is returned for a URL on a host none of the seeds is on, when WithSameHost is set.
	ErrOtherHost = errors.New("URL is on another host")
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrUnknownKind is returned when no Handler is registered for a Kind.
	ErrUnknownKind = errors.New("no handler registered for kind")
	// ErrNoSeeds is returned when Run is called without seed requests.
	ErrNoSeeds = errors.New("no seed requests")
)

// Options is a type for functional options that can be used to configure a Harvester.
type Options func(h *Harvester)

// ReqMiddleware is a type for request middlewares that can be used to modify a Request before it is fetched.
type ReqMiddleware func(req *Request)

// ResMiddleware is a type for response middlewares that can be used to inspect a Response before it is handled.
type ResMiddleware func(res *Response)

// Stats counts what happened during a crawl.
type Stats struct {
	// Visited is the number of pages fetched and handled without error.
	Visited int
	// Failed is the number of pages whose fetch or handler failed.
	Failed int
	// Skipped is the number of links rejected by a filter, robots.txt or the page limit.
	Skipped int
	// Records is the number of records merged into the store, overwrites included.
	Records int
	// Overwrites is the number of records that replaced an existing key.
	Overwrites int
}

// Harvester crawls pages starting from seed requests, dispatching every
// fetched page to the Handler registered for its Kind.
type Harvester struct {
	// Fetcher retrieves pages. Can be set with the WithFetcher functional option.
	Fetcher Fetcher
	// AllowedURLs is a list of URL prefixes that are allowed to be fetched. Can be set with the WithAllowedURLs functional option.
	AllowedURLs []string
	// DisallowedURLs is a list of URL prefixes that are disallowed to be fetched. Can be set with the WithDisallowedURLs functional option.
	DisallowedURLs []string
	// DepthLimit is the maximum depth of links to follow. If set to 0, all links are followed. Can be set with the WithDepthLimit functional option.
	DepthLimit int
	// MaxPages is the maximum number of pages scheduled in one crawl. If set to 0, there is no limit.
	MaxPages int
	// SameHost restricts the crawl to the hosts of the seed requests.
	SameHost bool
	// Workers is the number of pages fetched concurrently. Defaults to 1.
	Workers int
	// store remembers scheduled URLs across crawls when set by WithStore or Clone.
	// When nil every Run starts with an empty InMemoryStore.
	store Storer
	// limiter paces requests across all workers. nil means no limit.
	limiter *rate.Limiter
	logger  *log.Logger
	// handlers maps each Kind to its Handler. Can be extended with Handle.
	handlers handlers
	// requestMiddlewares is a list of request middlewares that are applied to each request. Can be set with the OnRequest method.
	requestMiddlewares []ReqMiddleware
	// responseMiddlewares is a list of response middlewares that are applied to each response. Can be set with the OnResponse method.
	responseMiddlewares []ResMiddleware
	// mu is a mutex used to synchronize registration with running crawls.
	mu sync.RWMutex
}

// defaultLogger writes warnings and errors to stderr.
func defaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.WarnLevel,
		ReportTimestamp: true,
	})
}

// NewHarvester creates a new Harvester. Without WithLogger it logs
// warnings and errors to stderr.
func NewHarvester(options ...Options) *Harvester {
	h := &Harvester{
		AllowedURLs:         []string{},
		DisallowedURLs:      []string{},
		DepthLimit:          0,
		MaxPages:            0,
		SameHost:            false,
		Workers:             1,
		logger:              defaultLogger(),
		handlers:            make(handlers),
		requestMiddlewares:  make([]ReqMiddleware, 0, 4),
		responseMiddlewares: make([]ResMiddleware, 0, 4),
	}

	for _, option := range options {
		option(h)
	}

	if h.Fetcher == nil {
		h.Fetcher = NewHTTPFetcher(WithFetcherLogger(h.logger))
	}

	return h
}

// Clone returns a new Harvester with the same options as the original
// except for the handlers and middleware functions. The clone shares the
// original's Fetcher and Storer, so URLs visited by one are not revisited by
// the other. A Harvester without a Storer gets one here, and from then on its
// own crawls also remember what earlier crawls visited.
func (h *Harvester) Clone() *Harvester {
	h.mu.Lock()
	if h.store == nil {
		h.store = NewInMemoryStore()
	}
	store := h.store
	h.mu.Unlock()

	return &Harvester{
		Fetcher:             h.Fetcher,
		AllowedURLs:         h.AllowedURLs,
		DisallowedURLs:      h.DisallowedURLs,
		DepthLimit:          h.DepthLimit,
		MaxPages:            h.MaxPages,
		SameHost:            h.SameHost,
		Workers:             h.Workers,
		store:               store,
		limiter:             h.limiter,
		logger:              h.logger,
		handlers:            make(handlers),
		requestMiddlewares:  make([]ReqMiddleware, 0, 4),
		responseMiddlewares: make([]ResMiddleware, 0, 4),
	}
}

// WithFetcher is a functional option that sets the Fetcher for the Harvester.
func WithFetcher(f Fetcher) Options {
	return func(h *Harvester) {
		h.Fetcher = f
	}
}

// WithAllowedURLs is a functional option that sets the allowed URL prefixes for the Harvester.
func WithAllowedURLs(urls []string) Options {
	return func(h *Harvester) {
		h.AllowedURLs = urls
	}
}

// WithDisallowedURLs is a functional option that sets the disallowed URL prefixes for the Harvester.
func WithDisallowedURLs(urls []string) Options {
	return func(h *Harvester) {
		h.DisallowedURLs = urls
	}
}

// WithDepthLimit is a functional option that sets the maximum depth for the Harvester.
func WithDepthLimit(depth int) Options {
	return func(h *Harvester) {
		h.DepthLimit = depth
	}
}

// WithMaxPages is a functional option that limits how many pages one crawl schedules.
func WithMaxPages(n int) Options {
	return func(h *Harvester) {
		h.MaxPages = n
	}
}

// WithSameHost is a functional option that keeps the crawl on the hosts of its seeds.
func WithSameHost(same bool) Options {
	return func(h *Harvester) {
		h.SameHost = same
	}
}

// WithWorkers is a functional option that sets how many pages are fetched concurrently.
func WithWorkers(n int) Options {
	return func(h *Harvester) {
		if n > 0 {
			h.Workers = n
		}
	}
}

// WithRateLimit is a functional option that limits requests to rps per second
// with the given burst. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Options {
	return func(h *Harvester) {
		if rps <= 0 {
			h.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithStore is a functional option that sets the Storer for the Harvester.
// The Storer outlives a single crawl, so a URL visited by one Run is skipped
// by the next. See the Storer interface in store.go for more information.
func WithStore(store Storer) Options {
	return func(h *Harvester) {
		h.store = store
	}
}

// WithLogger is a functional option that sets the logger for the Harvester.
func WithLogger(logger *log.Logger) Options {
	return func(h *Harvester) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handle registers fn as the Handler for pages of the given kind,
// replacing any earlier registration.
func (h *Harvester) Handle(kind Kind, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers[kind] = fn
}

// Kinds returns the registered kinds in sorted order.
func (h *Harvester) Kinds() []Kind {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.handlers.kinds()
}

// OnRequest adds a request middleware to the Harvester.
// Triggers the given ReqMiddleware for each request before it is fetched.
// Middlewares run on worker goroutines.
func (h *Harvester) OnRequest(mw ReqMiddleware) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestMiddlewares = append(h.requestMiddlewares, mw)
}

// OnResponse adds a response middleware to the Harvester.
// Triggers the given ResMiddleware for each successful response before it is handled.
// Middlewares run on worker goroutines.
func (h *Harvester) OnResponse(mw ResMiddleware) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.responseMiddlewares = append(h.responseMiddlewares, mw)
}

// Visit crawls from a single seed URL handled as kind.
func (h *Harvester) Visit(ctx context.Context, u string, kind Kind) (*ResultStore, error) {
	seed, err := NewRequest(u, kind)
	if err != nil {
		return nil, err
	}

	return h.Run(ctx, seed)
}

// Run crawls from the seed requests until no pages remain to visit or ctx is
// canceled, and returns the sealed ResultStore. On cancellation the store
// holds what was collected so far and the context's error is returned with it.
func (h *Harvester) Run(ctx context.Context, seeds ...*Request) (*ResultStore, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	h.mu.RLock()
	c := &crawl{
		harvester:           h,
		store:               NewResultStore(),
		handlers:            make(handlers, len(h.handlers)),
		requestMiddlewares:  append([]ReqMiddleware(nil), h.requestMiddlewares...),
		responseMiddlewares: append([]ResMiddleware(nil), h.responseMiddlewares...),
		visited:             h.store,
		hosts:               make(map[string]bool),
	}
	if c.visited == nil {
		c.visited = NewInMemoryStore()
	}
	for k, fn := range h.handlers {
		c.handlers[k] = fn
	}
	h.mu.RUnlock()

	for _, seed := range seeds {
		if _, ok := c.handlers.lookup(seed.Kind); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, seed.Kind)
		}
		c.hosts[strings.ToLower(seed.URL.Host)] = true
	}

	for _, seed := range seeds {
		if seed.Headers == nil {
			seed.Headers = http.Header{}
		}
		if err := c.schedule(seed); err != nil {
			c.stats.Skipped++
			h.logger.Warn("seed skipped", "url", seed.URL, "err", err)
		}
	}

	c.run(ctx)

	c.store.stats = c.stats
	c.store.Seal()

	h.logger.Info("crawl finished",
		"visited", c.stats.Visited,
		"failed", c.stats.Failed,
		"skipped", c.stats.Skipped,
		"records", c.stats.Records,
		"keys", c.store.Len())

	return c.store, ctx.Err()
}

// crawl is the state of one Run. Only the goroutine executing run touches
// the frontier, the store and the stats.
type crawl struct {
	harvester           *Harvester
	store               *ResultStore
	handlers            handlers
	requestMiddlewares  []ReqMiddleware
	responseMiddlewares []ResMiddleware
	visited             Storer
	hosts               map[string]bool
	frontier            []*Request
	scheduled           int
	stats               Stats
}

// outcome is what a worker reports back for one page.
type outcome struct {
	req *Request
	// final is the URL the page was served from.
	final *url.URL
	// base resolves relative follows. Only set when there are follows.
	base   *url.URL
	result Result
	err    error
}

func (c *crawl) run(ctx context.Context) {
	h := c.harvester
	results := make(chan outcome)

	var g errgroup.Group
	g.SetLimit(h.Workers)

	inFlight := 0
	for {
		for inFlight < h.Workers && len(c.frontier) > 0 && ctx.Err() == nil {
			req := c.frontier[0]
			c.frontier = c.frontier[1:]
			inFlight++

			g.Go(func() error {
				out := c.process(ctx, req)
				select {
				case results <- out:
				case <-ctx.Done():
				}
				return nil
			})
		}

		if inFlight == 0 {
			break
		}

		select {
		case out := <-results:
			inFlight--
			c.merge(ctx, out)
		case <-ctx.Done():
			_ = g.Wait()
			return
		}
	}

	_ = g.Wait()
}

// process fetches and handles one page. It runs on a worker goroutine.
func (c *crawl) process(ctx context.Context, req *Request) outcome {
	h := c.harvester

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return outcome{req: req, err: err}
		}
	}

	for _, m := range c.requestMiddlewares {
		m(req)
	}

	res, err := h.Fetcher.Fetch(ctx, req)
	if err != nil {
		return outcome{req: req, err: err}
	}

	for _, m := range c.responseMiddlewares {
		m(res)
	}

	fn, _ := c.handlers.lookup(req.Kind)
	result, err := fn(ctx, res)
	if err != nil {
		return outcome{req: req, err: fmt.Errorf("handler %q: %w", req.Kind, err)}
	}

	out := outcome{req: req, final: res.PageURL(), result: result}
	if len(result.Follows) > 0 {
		out.base = res.BaseURL()
	}

	return out
}

// merge folds a worker's outcome into the crawl state.
func (c *crawl) merge(ctx context.Context, out outcome) {
	logger := c.harvester.logger

	if out.err != nil {
		switch {
		case errors.Is(out.err, ErrRobotsDisallowed):
			c.stats.Skipped++
			logger.Info("skipped by robots.txt", "url", out.req.URL)
		case ctx.Err() != nil && errors.Is(out.err, ctx.Err()):
			// Canceled mid-fetch; Run reports the context error.
		default:
			c.stats.Failed++
			logger.Error("page failed", "url", out.req.URL, "kind", out.req.Kind, "err", out.err)
		}
		return
	}

	c.stats.Visited++

	if out.final != nil && normalizeURL(out.final) != normalizeURL(out.req.URL) {
		if !c.visited.Visit(normalizeURL(out.final)) {
			logger.Debug("redirect target already visited", "url", out.req.URL, "final", out.final)
		}
	}

	for _, rec := range out.result.Records {
		if rec.Key == "" {
			logger.Debug("record without key skipped", "url", out.req.URL)
			continue
		}

		overwrote, err := c.store.Put(rec)
		if err != nil {
			logger.Error("record dropped", "key", rec.Key, "err", err)
			continue
		}
		c.stats.Records++
		if overwrote {
			c.stats.Overwrites++
			logger.Debug("key produced again, keeping the later record", "key", rec.Key, "url", out.req.URL)
		}
	}

	for _, f := range out.result.Follows {
		req, err := c.follow(out.req, out.base, f)
		if err != nil {
			if errors.Is(err, ErrUnknownKind) {
				c.stats.Failed++
				logger.Error("follow dropped", "url", f.URL, "kind", f.Kind, "err", err)
				continue
			}
			if !errors.Is(err, ErrVisitedURL) {
				c.stats.Skipped++
			}
			logger.Debug("follow skipped", "url", f.URL, "err", err)
			continue
		}
		if req != nil {
			logger.Info("following", "url", req.URL, "kind", req.Kind, "depth", req.Depth)
		}
	}
}

// follow turns a Follow found on parent into a scheduled Request. Relative
// URLs resolve against base, or the parent URL when base is nil.
func (c *crawl) follow(parent *Request, base *url.URL, f Follow) (*Request, error) {
	if _, ok := c.handlers.lookup(f.Kind); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}

	if base == nil {
		base = parent.URL
	}

	abs := resolveLink(base, f.URL)
	if abs == "" {
		return nil, nil
	}

	u, err := url.Parse(abs)
	if err != nil {
		return nil, err
	}

	req := &Request{
		URL:     u,
		Kind:    f.Kind,
		Depth:   parent.Depth + 1,
		Headers: http.Header{},
	}

	if err := c.schedule(req); err != nil {
		return nil, err
	}

	return req, nil
}

// schedule applies the filters and appends req to the frontier.
func (c *crawl) schedule(req *Request) error {
	h := c.harvester

	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, req.URL)
	}

	if err := h.checkDepth(req.Depth); err != nil {
		return err
	}

	if err := h.checkFilters(req.URL); err != nil {
		return err
	}

	if h.SameHost && !c.hosts[strings.ToLower(req.URL.Host)] {
		return fmt.Errorf("%w: %s", ErrOtherHost, req.URL)
	}

	if h.MaxPages > 0 && c.scheduled >= h.MaxPages {
		return fmt.Errorf("%w: %d", ErrPageLimitReached, h.MaxPages)
	}

	if !c.visited.Visit(normalizeURL(req.URL)) {
		return fmt.Errorf("%w: %s", ErrVisitedURL, req.URL)
	}

	c.scheduled++
	c.frontier = append(c.frontier, req)

	return c.store.AddLink(req.URL.String())
}

func (h *Harvester) checkFilters(parsedURL *url.URL) error {
	u := parsedURL.String()

	if !h.isURLAllowed(u) {
		return fmt.Errorf("%w: %s", ErrForbiddenURL, u)
	}

	return nil
}

func (h *Harvester) checkDepth(depth int) error {
	if h.DepthLimit != 0 && depth >= h.DepthLimit {
		return fmt.Errorf("%w: %d >= %d", ErrDepthLimitExceeded, depth, h.DepthLimit)
	}

	return nil
}

// isURLAllowed checks if the given URL is allowed to be fetched.
func (h *Harvester) isURLAllowed(u string) bool {
	for _, disallowed := range h.DisallowedURLs {
		if strings.HasPrefix(u, disallowed) {
			return false
		}
	}

	if len(h.AllowedURLs) == 0 {
		return true
	}

	for _, allowed := range h.AllowedURLs {
		if strings.HasPrefix(u, allowed) {
			return true
		}
	}

	return false
}
