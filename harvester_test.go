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
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helloBytes = []byte("Hello, client\n")

func newUnstartedTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(helloBytes)
	})

	mux.HandleFunc("/heavyweight", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second * 2): // Simulate work
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("hello"))
		case <-r.Context().Done(): // Handle request cancellation
			http.Error(w, "Request canceled", http.StatusRequestTimeout)
		}
	})

	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	})

	mux.Handle("/404", http.NotFoundHandler())

	mux.Handle("/allowed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Allowed"))
	}))

	mux.Handle("/disallowed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Disallowed"))
	}))

	mux.Handle("/robots.txt", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /disallowed"))
	}))

	mux.Handle("/user_agent", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))

	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `
			<!DOCTYPE html>
			<html>
			<head><title>Courses</title></head>
			<body>
				<a href="#top">Top</a>
				<div class="course-block"><a href="/courses/go">Go</a></div>
				<div class="course-block"><a href="/courses/python">Python</a></div>
			</body>
			</html>
		`)
	})

	mux.HandleFunc("/courses/go", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `
			<html><body>
				<h1 class="title">Go</h1>
				<h4 class="chapter__title">Basics</h4>
				<h4 class="chapter__title">Concurrency</h4>
			</body></html>
		`)
	})

	mux.HandleFunc("/courses/python", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `
			<html><body>
				<h1 class="title">Python</h1>
				<h4 class="chapter__title">Syntax</h4>
			</body></html>
		`)
	})

	mux.HandleFunc("/courses/untitled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `<html><body><h4 class="chapter__title">Orphan</h4></body></html>`)
	})

	mux.HandleFunc("/cycle/a", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `<a href="/cycle/b">b</a><a href="/cycle/a#again">a</a>`)
	})

	mux.HandleFunc("/cycle/b", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `<a href="/cycle/a">a</a>`)
	})

	mux.HandleFunc("/depth/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/depth/"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `<a href="/depth/%d">next</a>`, n+1)
	})

	mux.HandleFunc("/wide", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<a href="/leaf/%d">leaf %d</a>`, i, i)
		}
	})

	mux.HandleFunc("/leaf/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `<p>%s</p>`, r.URL.Path)
	})

	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `<a href="/error">error</a><a href="/404">missing</a><a href="/">home</a>`)
	})

	return httptest.NewUnstartedServer(mux)
}

func newTestServer() *httptest.Server {
	server := newUnstartedTestServer()
	server.Start()

	return server
}

func newTestLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestHarvester(options ...Options) *Harvester {
	return newTestHarvesterWithFetcher(nil, options...)
}

func newTestHarvesterWithFetcher(fetcherOptions []FetcherOption, options ...Options) *Harvester {
	client := &http.Client{
		Timeout: time.Second * 10,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	logger := newTestLogger()
	fetcher := NewHTTPFetcher(append([]FetcherOption{
		WithHTTPClient(client),
		WithFetcherLogger(logger),
	}, fetcherOptions...)...)

	return NewHarvester(
		append([]Options{WithFetcher(fetcher), WithLogger(logger)}, options...)...,
	)
}

// followAll follows every anchor on the page as kind.
func followAll(kind Kind) Handler {
	return func(ctx context.Context, res *Response) (Result, error) {
		links, err := res.XPath("//a/@href")
		if err != nil {
			return Result{}, err
		}

		var out Result
		for _, href := range links.GetAll() {
			out.Follows = append(out.Follows, res.Follow(href, kind))
		}

		return out, nil
	}
}

func terminal(ctx context.Context, res *Response) (Result, error) {
	return Result{}, nil
}

func courseHandler(ctx context.Context, res *Response) (Result, error) {
	doc, err := res.Selector()
	if err != nil {
		return Result{}, err
	}

	title := strings.TrimSpace(doc.MustXPath(`//h1[contains(@class, "title")]/text()`).Get())
	if title == "" {
		return Result{}, nil
	}

	chapters := doc.MustCSS("h4.chapter__title::text").GetAll()

	return Result{Records: []Record{{Key: title, Values: chapters}}}, nil
}

func listingHandler(ctx context.Context, res *Response) (Result, error) {
	links, err := res.XPath(`//div[@class="course-block"]/a/@href`)
	if err != nil {
		return Result{}, err
	}

	var out Result
	for _, href := range links.GetAll() {
		out.Follows = append(out.Follows, res.Follow(href, "course"))
	}

	return out, nil
}

func TestHarvester_VisitsSeedAndLinksOnce(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	var responses atomic.Int32

	h := newTestHarvester()
	h.Handle("listing", listingHandler)
	h.Handle("course", terminal)
	h.OnResponse(func(res *Response) {
		responses.Add(1)
	})

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	assert.Equal(t, int32(3), responses.Load())
	assert.Equal(t, 3, store.Stats().Visited)
	assert.Equal(t, 0, store.Stats().Failed)
	assert.Equal(t, []string{
		server.URL + "/courses",
		server.URL + "/courses/go",
		server.URL + "/courses/python",
	}, store.Links())
	assert.True(t, store.Sealed())
}

func TestHarvester_AggregatesRecords(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("listing", listingHandler)
	h.Handle("course", courseHandler)

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"Go":     {"Basics", "Concurrency"},
		"Python": {"Syntax"},
	}, store.Map())
	assert.Equal(t, []string{"Go", "Python"}, store.Keys())
	assert.Equal(t, 2, store.Stats().Records)
}

func TestHarvester_SkipsRecordsWithoutKey(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("course", courseHandler)
	h.Handle("raw", func(ctx context.Context, res *Response) (Result, error) {
		return Result{Records: []Record{{Key: "", Values: []string{"lost"}}}}, nil
	})

	untitled, err := NewRequest(server.URL+"/courses/untitled", "course")
	require.NoError(t, err)
	raw, err := NewRequest(server.URL+"/courses/go", "raw")
	require.NoError(t, err)

	store, err := h.Run(context.Background(), untitled, raw)
	require.NoError(t, err)

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 2, store.Stats().Visited)
	assert.Equal(t, 0, store.Stats().Failed)
}

func TestHarvester_ReportsFailedPages(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("page", followAll("leaf"))
	h.Handle("leaf", terminal)

	store, err := h.Visit(context.Background(), server.URL+"/broken", "page")
	require.NoError(t, err)

	assert.Equal(t, 2, store.Stats().Visited)
	assert.Equal(t, 2, store.Stats().Failed)
}

func TestHarvester_HandlerErrorDoesNotAbort(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("listing", listingHandler)
	h.Handle("course", func(ctx context.Context, res *Response) (Result, error) {
		if strings.HasSuffix(res.Request.URL.Path, "/go") {
			return Result{}, fmt.Errorf("boom")
		}
		return courseHandler(ctx, res)
	})

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Stats().Failed)
	assert.Equal(t, []string{"Python"}, store.Keys())
}

func TestHarvester_UnknownKind(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()

	_, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = h.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoSeeds)

	h.Handle("listing", listingHandler)

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Stats().Visited)
	assert.Equal(t, 2, store.Stats().Failed)
	assert.Equal(t, []string{server.URL + "/courses"}, store.Links())
}

func TestHarvester_DoesNotRevisit(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	var responses atomic.Int32

	h := newTestHarvester()
	h.Handle("page", followAll("page"))
	h.OnResponse(func(res *Response) {
		responses.Add(1)
	})

	store, err := h.Visit(context.Background(), server.URL+"/cycle/a", "page")
	require.NoError(t, err)

	assert.Equal(t, int32(2), responses.Load())
	assert.Equal(t, 2, store.Stats().Visited)
}

func TestHarvester_MaximumDepth(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester(WithDepthLimit(2))
	h.Handle("page", followAll("page"))

	store, err := h.Visit(context.Background(), server.URL+"/depth/0", "page")
	require.NoError(t, err)

	assert.Equal(t, 2, store.Stats().Visited)
	assert.Equal(t, []string{server.URL + "/depth/0", server.URL + "/depth/1"}, store.Links())
	assert.Equal(t, 1, store.Stats().Skipped)
}

func TestHarvester_MaxPages(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester(WithMaxPages(5))
	h.Handle("page", followAll("page"))

	store, err := h.Visit(context.Background(), server.URL+"/wide", "page")
	require.NoError(t, err)

	assert.Equal(t, 5, store.Stats().Visited)
	assert.Equal(t, 16, store.Stats().Skipped)
}

func TestHarvester_VisitWithAllowedURLs(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	allowed := []string{
		server.URL + "/allowed",
		server.URL + "/faq",
	}

	h := newTestHarvesterWithFetcher([]FetcherOption{WithIgnoreRobots(true)}, WithAllowedURLs(allowed))
	h.Handle("page", terminal)

	store, err := h.Visit(context.Background(), server.URL+"/", "page")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Stats().Visited)
	assert.Equal(t, 1, store.Stats().Skipped)

	store, err = h.Visit(context.Background(), server.URL+"/allowed", "page")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Stats().Visited)
}

func TestHarvester_VisitWithDisallowedURLs(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	disallowed := []string{
		server.URL + "/courses/",
	}

	h := newTestHarvester(WithDisallowedURLs(disallowed))
	h.Handle("listing", listingHandler)
	h.Handle("course", courseHandler)

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Stats().Visited)
	assert.Equal(t, 2, store.Stats().Skipped)
	assert.Equal(t, 0, store.Len())
}

func TestHarvester_RespectsRobots(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("page", terminal)

	store, err := h.Visit(context.Background(), server.URL+"/disallowed", "page")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Stats().Visited)
	assert.Equal(t, 1, store.Stats().Skipped)

	h = newTestHarvesterWithFetcher([]FetcherOption{WithIgnoreRobots(true)})
	h.Handle("page", terminal)

	store, err = h.Visit(context.Background(), server.URL+"/disallowed", "page")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Stats().Visited)
}

func TestHarvester_LastWriteWins(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester()
	h.Handle("listing", listingHandler)
	h.Handle("course", func(ctx context.Context, res *Response) (Result, error) {
		return Result{Records: []Record{{Key: "course", Values: []string{res.Request.URL.Path}}}}, nil
	})

	store, err := h.Visit(context.Background(), server.URL+"/courses", "listing")
	require.NoError(t, err)

	values, ok := store.Get("course")
	require.True(t, ok)
	assert.Equal(t, []string{"/courses/python"}, values)
	assert.Equal(t, 1, store.Overwrites())
	assert.Equal(t, 1, store.Stats().Overwrites)
}

func TestHarvester_Workers(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h := newTestHarvester(WithWorkers(4), WithRateLimit(1000, 10))
	h.Handle("page", followAll("leaf"))
	h.Handle("leaf", func(ctx context.Context, res *Response) (Result, error) {
		text, err := res.XPath("//p/text()")
		if err != nil {
			return Result{}, err
		}
		return Result{Records: []Record{{Key: res.Request.URL.Path, Values: text.GetAll()}}}, nil
	})

	store, err := h.Visit(context.Background(), server.URL+"/wide", "page")
	require.NoError(t, err)

	assert.Equal(t, 21, store.Stats().Visited)
	assert.Equal(t, 20, store.Len())
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/leaf/%d", i)
		values, ok := store.Get(path)
		require.True(t, ok, path)
		assert.Equal(t, []string{path}, values)
	}
}

func TestHarvester_RequestMiddleware(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	onRequestCalled := false
	onResponseCalled := false

	h := newTestHarvester()
	h.Handle("page", terminal)

	h.OnRequest(func(req *Request) {
		onRequestCalled = true
		req.Headers.Set("User-Agent", "Test User Agent")
	})

	h.OnResponse(func(res *Response) {
		onResponseCalled = true

		assert.Equal(t, server.URL+"/user_agent", res.Request.URL.String())
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "Test User Agent", string(res.Body))
	})

	_, err := h.Visit(context.Background(), server.URL+"/user_agent", "page")
	require.NoError(t, err)

	if !onRequestCalled {
		t.Error("OnRequest middleware was not called")
	}

	if !onResponseCalled {
		t.Error("OnResponse middleware was not called")
	}
}

func TestHarvester_VisitWithContext(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	h := newTestHarvester()
	h.Handle("page", terminal)
	h.OnResponse(func(res *Response) {
		t.Error("OnResponse middleware should not be called")
	})

	store, err := h.Visit(ctx, server.URL+"/heavyweight", "page")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, store)
	assert.True(t, store.Sealed())
	assert.Equal(t, 0, store.Stats().Visited)
}

func TestHarvester_Clone(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	h1 := newTestHarvester(WithDepthLimit(2))
	h1.Handle("page", terminal)

	h2 := h1.Clone()
	assert.Empty(t, h2.Kinds())
	assert.Equal(t, 2, h2.DepthLimit)

	_, err := h2.Visit(context.Background(), server.URL+"/", "page")
	assert.ErrorIs(t, err, ErrUnknownKind)

	store, err := h1.Visit(context.Background(), server.URL+"/", "page")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Stats().Visited)

	// The clone shares the visited store of the original.
	h2.Handle("page", terminal)
	store, err = h2.Visit(context.Background(), server.URL+"/", "page")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Stats().Visited)
	assert.Equal(t, 1, store.Stats().Skipped)
}

func TestHarvester_ResolvesAgainstRedirectTarget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dir/page", http.StatusFound)
	})
	mux.HandleFunc("/dir/page", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="next">next</a><a href="page">self</a>`)
	})
	mux.HandleFunc("/dir/next", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>done</p>`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	// The default client follows redirects.
	h := NewHarvester(WithFetcher(newTestFetcher()), WithLogger(newTestLogger()))
	h.Handle("page", followAll("page"))

	store, err := h.Visit(context.Background(), server.URL+"/start", "page")
	require.NoError(t, err)

	// /dir/page is the redirect target and is not fetched a second time.
	assert.Equal(t, []string{server.URL + "/start", server.URL + "/dir/next"}, store.Links())
	assert.Equal(t, 2, store.Stats().Visited)
	assert.Equal(t, 0, store.Stats().Failed)
	assert.Equal(t, 0, store.Stats().Skipped)
}

func TestHarvester_BaseHref(t *testing.T) {
	fetcher := stubFetcher{
		"http://example.com/a/index": `<html><head><base href="/b/"></head><body><a href="x">x</a></body></html>`,
		"http://example.com/b/x":     `<p>x</p>`,
	}

	h := NewHarvester(WithFetcher(fetcher), WithLogger(newTestLogger()))
	h.Handle("page", followAll("page"))

	store, err := h.Visit(context.Background(), "http://example.com/a/index", "page")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://example.com/a/index", "http://example.com/b/x"}, store.Links())
	assert.Equal(t, 2, store.Stats().Visited)
}

func TestHarvester_RunTwice(t *testing.T) {
	fetcher := stubFetcher{
		"http://example.com/":      `<a href="/about">about</a>`,
		"http://example.com/about": `<p>about</p>`,
	}

	h := NewHarvester(WithFetcher(fetcher), WithLogger(newTestLogger()))
	h.Handle("page", followAll("page"))

	for i := 0; i < 2; i++ {
		store, err := h.Visit(context.Background(), "http://example.com/", "page")
		require.NoError(t, err)

		assert.Equal(t, 2, store.Stats().Visited, "run %d", i)
		assert.Equal(t, 0, store.Stats().Skipped, "run %d", i)
		assert.Equal(t, []string{"http://example.com/", "http://example.com/about"}, store.Links(), "run %d", i)
	}
}

func TestHarvester_WithStoreOutlivesRun(t *testing.T) {
	fetcher := stubFetcher{"http://example.com/": `<p>home</p>`}

	visited := NewInMemoryStore()
	h := NewHarvester(WithFetcher(fetcher), WithLogger(newTestLogger()), WithStore(visited))
	h.Handle("page", terminal)

	store, err := h.Visit(context.Background(), "http://example.com/", "page")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Stats().Visited)
	assert.True(t, visited.Visited("http://example.com/"))

	store, err = h.Visit(context.Background(), "http://example.com/", "page")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Stats().Visited)
	assert.Equal(t, 1, store.Stats().Skipped)
}

func TestNewHarvester_DefaultLogger(t *testing.T) {
	h := NewHarvester(WithFetcher(stubFetcher{}))

	assert.Equal(t, log.WarnLevel, h.logger.GetLevel())
	assert.Equal(t, log.WarnLevel, NewHTTPFetcher().logger.GetLevel())
}

type stubFetcher map[string]string

func (s stubFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	body, ok := s[req.URL.String()]
	if !ok {
		return nil, fmt.Errorf("%w: 404 for %s", ErrUnexpectedStatus, req.URL)
	}

	return &Response{Request: req, StatusCode: http.StatusOK, Headers: http.Header{}, Body: []byte(body)}, nil
}

func TestHarvester_SameHost(t *testing.T) {
	fetcher := stubFetcher{
		"http://example.com/":      `<a href="/about">about</a><a href="https://external.com/resource">ext</a><a href="mailto:me@example.com">mail</a>`,
		"http://example.com/about": `<p>about</p>`,
	}

	h := NewHarvester(WithFetcher(fetcher), WithLogger(newTestLogger()), WithSameHost(true))
	h.Handle("page", followAll("page"))

	store, err := h.Visit(context.Background(), "http://example.com/", "page")
	require.NoError(t, err)

	assert.Equal(t, 2, store.Stats().Visited)
	assert.Equal(t, 1, store.Stats().Skipped)
	assert.Equal(t, []string{"http://example.com/", "http://example.com/about"}, store.Links())
	assert.Equal(t, []Kind{"page"}, h.Kinds())
}

func TestHarvester_UnsupportedSeedScheme(t *testing.T) {
	h := NewHarvester(WithFetcher(stubFetcher{}), WithLogger(newTestLogger()))
	h.Handle("page", terminal)

	store, err := h.Visit(context.Background(), "ftp://example.com/file", "page")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Stats().Skipped)
	assert.Empty(t, store.Links())
}
