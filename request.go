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
	"net/http"
	"net/url"
	"strings"
)

// Request is a page waiting to be fetched together with the Kind of handler
// that will process it.
type Request struct {
	// URL is the absolute URL of the page.
	URL *url.URL
	// Kind selects the Handler invoked with the response.
	Kind Kind
	// Depth is the number of follows between a seed and this page. Seeds have depth 0.
	Depth int
	// Headers are sent with the request. Request middlewares may modify them.
	Headers http.Header
}

// NewRequest creates a seed Request for the given URL and Kind.
func NewRequest(rawURL string, kind Kind) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	return &Request{
		URL:     u,
		Kind:    kind,
		Depth:   0,
		Headers: http.Header{},
	}, nil
}

// AbsoluteURL resolves a link found on the page against the page URL.
// Fragment-only links and non-navigational schemes (javascript:, mailto:,
// tel:, data:) resolve to "". The fragment of the result is removed.
func (r *Request) AbsoluteURL(link string) string {
	return resolveLink(r.URL, link)
}

func resolveLink(base *url.URL, link string) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "#") {
		return ""
	}

	lower := strings.ToLower(link)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	href, err := url.Parse(link)
	if err != nil {
		return ""
	}

	absoluteURL := base.ResolveReference(href)
	absoluteURL.Fragment = ""
	absoluteURL.RawFragment = ""

	return absoluteURL.String()
}
