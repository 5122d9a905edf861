package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Link is an anchor found in a document.
type Link struct {
	// Href is the raw value of the href attribute.
	Href string
	// Text is the whitespace-collapsed text inside the anchor.
	Text string
}

// ParseLinks returns the anchors with an href attribute in document order.
func ParseLinks(body io.Reader) ([]Link, error) {
	links := []Link{}
	tokenizer := html.NewTokenizer(body)

	var (
		current *Link
		text    strings.Builder
	)

	for {
		tt := tokenizer.Next()

		switch tt {
		case html.ErrorToken: // End of the document
			if err := tokenizer.Err(); err != io.EOF {
				return links, err
			}
			if current != nil {
				current.Text = collapse(text.String())
				links = append(links, *current)
			}
			return links, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			t := tokenizer.Token()
			if t.Data != "a" {
				continue
			}

			// An anchor cannot nest, a new one closes the open one.
			if current != nil {
				current.Text = collapse(text.String())
				links = append(links, *current)
				current = nil
			}

			ok, href := getHref(t)
			if !ok {
				continue
			}

			current = &Link{Href: href}
			text.Reset()
			if tt == html.SelfClosingTagToken {
				links = append(links, *current)
				current = nil
			}
		case html.TextToken:
			if current != nil {
				text.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if current != nil && string(name) == "a" {
				current.Text = collapse(text.String())
				links = append(links, *current)
				current = nil
			}
		}
	}
}

func getHref(t html.Token) (ok bool, href string) {
	for _, a := range t.Attr {
		if a.Key == "href" {
			return true, a.Val
		}
	}

	return false, ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
