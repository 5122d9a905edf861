/*
Package parser extracts links from HTML documents.

ExtractLinks resolves every anchor in a document with the given function and
returns the distinct results in document order, each with the text of the
first anchor that pointed at it:

	links, err := parser.ExtractLinks(bytes.NewReader(res.Body), res.AbsoluteURL)
	if err != nil {
		log.Fatal(err)
	}
*/
package parser

import (
	"io"
)

// Resolver turns a raw href into an absolute URL. It returns "" for links
// that should be dropped.
type Resolver func(href string) string

// ExtractLinks returns the anchors of body with distinct resolved hrefs. Href
// of every returned Link holds the resolved URL. A nil resolve keeps the
// hrefs as they are.
func ExtractLinks(body io.Reader, resolve Resolver) ([]Link, error) {
	anchors, err := ParseLinks(body)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(anchors))
	seen := make(map[string]bool, len(anchors))

	for _, a := range anchors {
		href := a.Href
		if resolve != nil {
			href = resolve(href)
		}
		if href == "" || seen[href] {
			continue
		}

		seen[href] = true
		links = append(links, Link{Href: href, Text: a.Text})
	}

	return links, nil
}
