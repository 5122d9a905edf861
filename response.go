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
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/HRemonen/scrapyard/selector"
)

// Response is a fetched page. It is owned by the handler it is passed to
// and must not be retained after the handler returns.
type Response struct {
	// Request is the request that produced this response.
	Request *Request
	// URL is the URL the page was served from after redirects. nil means
	// Request.URL.
	URL *url.URL
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Headers are the response headers.
	Headers http.Header
	// Body is the full response body, possibly truncated to the fetcher's size limit.
	Body []byte

	doc  *selector.Selector
	base *url.URL
}

var baseHref = selector.MustCSS("base[href]::attr(href)")

// PageURL returns the URL the page was served from.
func (r *Response) PageURL() *url.URL {
	if r.URL != nil {
		return r.URL
	}

	return r.Request.URL
}

// BaseURL returns the URL relative links on the page resolve against: the
// first <base href> of the document resolved against PageURL, or PageURL.
func (r *Response) BaseURL() *url.URL {
	if r.base != nil {
		return r.base
	}

	r.base = r.PageURL()

	doc, err := r.Selector()
	if err != nil {
		return r.base
	}

	href := strings.TrimSpace(doc.Select(baseHref).Get())
	if href == "" {
		return r.base
	}

	if u, err := url.Parse(href); err == nil {
		r.base = r.PageURL().ResolveReference(u)
	}

	return r.base
}

// AbsoluteURL resolves a link found on the page against BaseURL, with the
// same rules as Request.AbsoluteURL.
func (r *Response) AbsoluteURL(link string) string {
	return resolveLink(r.BaseURL(), link)
}

// Selector parses the body on first use and returns the document root.
// Bodies in other encodings are converted to UTF-8.
func (r *Response) Selector() (*selector.Selector, error) {
	if r.doc != nil {
		return r.doc, nil
	}

	doc, err := selector.Parse(r.utf8Body())
	if err != nil {
		return nil, err
	}
	r.doc = doc

	return doc, nil
}

// utf8Body decodes the body with the encoding named by the Content-Type header
// or a meta tag. Without either a body that is valid UTF-8 is read as UTF-8.
func (r *Response) utf8Body() io.Reader {
	enc, name, certain := charset.DetermineEncoding(r.Body, r.Headers.Get("Content-Type"))
	// windows-1252 is also the guess when nothing names an encoding, and
	// detection only looks at the first 1024 bytes.
	if name == "utf-8" || (!certain && name == "windows-1252" && utf8.Valid(r.Body)) {
		return bytes.NewReader(r.Body)
	}

	return enc.NewDecoder().Reader(bytes.NewReader(r.Body))
}

// XPath runs an XPath query against the response document.
func (r *Response) XPath(expr string) (selector.List, error) {
	doc, err := r.Selector()
	if err != nil {
		return nil, err
	}

	return doc.XPath(expr)
}

// CSS runs a CSS query against the response document.
func (r *Response) CSS(sel string) (selector.List, error) {
	doc, err := r.Selector()
	if err != nil {
		return nil, err
	}

	return doc.CSS(sel)
}

// Follow resolves link against the base URL of the page and returns a Follow
// that the Harvester will schedule with the handler registered for kind.
func (r *Response) Follow(link string, kind Kind) Follow {
	return Follow{
		URL:  r.AbsoluteURL(link),
		Kind: kind,
	}
}
