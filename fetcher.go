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
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrRobotsDisallowed is returned when a URL is disallowed by robots.txt.
	ErrRobotsDisallowed = errors.New("URL is disallowed by robots.txt")
	// ErrUnexpectedStatus is returned when a response has a non-2xx status code.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "scrapyard/1.0"
	// DefaultMaxBodySize is the default limit for response bodies.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Fetcher retrieves the page a Request points at.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherOption is a functional option that configures an HTTPFetcher.
type FetcherOption func(f *HTTPFetcher)

// HTTPFetcher is a Fetcher that performs HTTP GET requests. It honors
// robots.txt unless told otherwise and treats non-2xx statuses as errors.
type HTTPFetcher struct {
	// client is the resty client wrapping the configured http.Client.
	client *resty.Client
	// userAgent is sent with every request and used for robots.txt matching.
	userAgent string
	// maxBodySize limits how much of a response body is read.
	maxBodySize int64
	// ignoreRobots is a flag that determines whether robots.txt should be ignored, defaults to false.
	ignoreRobots bool
	// robotsMap is a map of hostnames to robotstxt.RobotsData, which is used to cache robots.txt files.
	robotsMap map[string]*robotstxt.RobotsData
	// robotsGroup makes concurrent lookups for one host share a single request.
	robotsGroup singleflight.Group
	logger      *log.Logger
	lock        sync.RWMutex
}

// NewHTTPFetcher creates a new HTTPFetcher. Without options it uses a plain
// http.Client, DefaultUserAgent and DefaultMaxBodySize, does not retry and
// logs warnings to stderr.
func NewHTTPFetcher(options ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:       resty.NewWithClient(&http.Client{}),
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
		ignoreRobots: false,
		robotsMap:    make(map[string]*robotstxt.RobotsData),
		logger:       defaultLogger(),
	}

	for _, option := range options {
		option(f)
	}

	f.client.SetLogger(f.logger)

	return f
}

// WithHTTPClient is a functional option that sets the http.Client used by the HTTPFetcher.
// It must come before the other client options, which configure the client it installs.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = resty.NewWithClient(client)
	}
}

// WithUserAgent is a functional option that sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout is a functional option that sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.SetTimeout(d)
	}
}

// WithRetries is a functional option that sets how many times a request that
// failed at the transport level is retried. Defaults to 0.
func WithRetries(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.SetRetryCount(n)
	}
}

// WithMaxBodySize is a functional option that limits how many bytes of a body are read.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithIgnoreRobots is a functional option that sets the ignoreRobots flag for the HTTPFetcher.
func WithIgnoreRobots(ignore bool) FetcherOption {
	return func(f *HTTPFetcher) {
		f.ignoreRobots = ignore
	}
}

// WithFetcherLogger is a functional option that sets the logger of the HTTPFetcher.
func WithFetcherLogger(logger *log.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetch requests the page at req.URL if robots.txt allows it.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if err := f.checkRobots(ctx, req.URL); err != nil {
		return nil, err
	}

	r := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", f.userAgent)

	if len(req.Headers) > 0 {
		r.SetHeaderMultiValues(req.Headers)
	}

	res, err := r.Get(req.URL.String())
	if err != nil {
		return nil, err
	}

	body := res.RawBody()
	defer func() {
		if err := body.Close(); err != nil {
			f.logger.Warn("error closing response body", "url", req.URL, "err", err)
		}
	}()

	if res.StatusCode() < http.StatusOK || res.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, res.StatusCode(), req.URL)
	}

	b, err := io.ReadAll(io.LimitReader(body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	// The last request of a followed redirect chain carries the final URL.
	final := req.URL
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL
	}

	return &Response{
		Request:    req,
		URL:        final,
		StatusCode: res.StatusCode(),
		Headers:    res.Header(),
		Body:       b,
	}, nil
}

func (f *HTTPFetcher) checkRobots(ctx context.Context, u *url.URL) error {
	if f.ignoreRobots {
		return nil
	}

	f.lock.RLock()
	robot, ok := f.robotsMap[u.Host]
	f.lock.RUnlock()

	if !ok {
		v, err, _ := f.robotsGroup.Do(u.Host, func() (any, error) {
			f.lock.RLock()
			cached, ok := f.robotsMap[u.Host]
			f.lock.RUnlock()
			if ok {
				return cached, nil
			}

			return f.fetchRobots(ctx, u)
		})
		if err != nil {
			// An unreachable robots.txt does not block the crawl.
			f.logger.Warn("could not fetch robots.txt", "host", u.Host, "err", err)
			return nil
		}
		robot = v.(*robotstxt.RobotsData)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	if !robot.TestAgent(path, f.userAgent) {
		return fmt.Errorf("%w: %s", ErrRobotsDisallowed, u)
	}

	return nil
}

func (f *HTTPFetcher) fetchRobots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	robotURL := u.Scheme + "://" + u.Host + "/robots.txt"

	res, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.userAgent).
		Get(robotURL)
	if err != nil {
		return nil, err
	}

	robot, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		return nil, err
	}

	f.lock.Lock()
	f.robotsMap[u.Host] = robot
	f.lock.Unlock()

	return robot, nil
}
