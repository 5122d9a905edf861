/*
Package selector answers XPath and CSS queries over an HTML document.

A Selector wraps either a node of the parsed tree or a string result
(an attribute value, or the result of a scalar XPath expression such as
count()). Queries return a List in document order. A query that matches
nothing returns an empty List, never an error.

Example:

	doc, err := selector.ParseString(`<div class="hello"><p>A</p></div><p>B</p>`)
	if err != nil {
		log.Fatal(err)
	}

	doc.MustXPath("//p/text()").GetAll()     // ["A", "B"]
	doc.MustXPath("//div/p/text()").GetAll() // ["A"]
	doc.MustCSS("div > p::text").GetAll()     // ["A"]
*/
package selector

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Selector is a single query result.
type Selector struct {
	node *html.Node
	// value holds the result when there is no node to point at.
	value string
}

// Parse parses an HTML document and returns a Selector for its root.
func Parse(r io.Reader) (*Selector, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, err
	}

	return &Selector{node: doc}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Selector, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses an HTML document held in a byte slice.
func ParseBytes(b []byte) (*Selector, error) {
	return Parse(bytes.NewReader(b))
}

// FromNode wraps an already parsed node.
func FromNode(n *html.Node) *Selector {
	return &Selector{node: n}
}

// Node returns the wrapped node, or nil for string results.
func (s *Selector) Node() *html.Node {
	return s.node
}

// IsNode reports whether the Selector points at an element or document node
// that can be queried further.
func (s *Selector) IsNode() bool {
	return s.node != nil && (s.node.Type == html.ElementNode || s.node.Type == html.DocumentNode)
}

// Select runs a compiled query relative to s. An XPath location path that
// starts with "/" is rooted at s, not at the document.
func (s *Selector) Select(q Query) List {
	if !s.IsNode() {
		return List{}
	}

	switch q.lang {
	case LangXPath:
		return s.selectXPath(q)
	case LangCSS:
		return s.selectCSS(q)
	default:
		return List{}
	}
}

// XPath compiles expr and runs it relative to s.
func (s *Selector) XPath(expr string) (List, error) {
	q, err := NewXPath(expr)
	if err != nil {
		return nil, err
	}

	return s.Select(q), nil
}

// CSS compiles sel and runs it relative to s.
func (s *Selector) CSS(sel string) (List, error) {
	q, err := NewCSS(sel)
	if err != nil {
		return nil, err
	}

	return s.Select(q), nil
}

// MustXPath is like XPath but panics on an invalid expression.
func (s *Selector) MustXPath(expr string) List {
	return s.Select(MustXPath(expr))
}

// MustCSS is like CSS but panics on an invalid selector.
func (s *Selector) MustCSS(sel string) List {
	return s.Select(MustCSS(sel))
}

func (s *Selector) selectXPath(q Query) List {
	out := List{}

	switch v := q.xp.evaluate(htmlquery.CreateXPathNavigator(s.node)).(type) {
	case *xpath.NodeIterator:
		for v.MoveNext() {
			nav, ok := v.Current().(*htmlquery.NodeNavigator)
			if !ok {
				continue
			}

			switch nav.NodeType() {
			case xpath.AttributeNode:
				out = append(out, &Selector{value: nav.Value()})
			default:
				out = append(out, &Selector{node: nav.Current()})
			}
		}
	case string:
		out = append(out, &Selector{value: v})
	case float64:
		out = append(out, &Selector{value: strconv.FormatFloat(v, 'f', -1, 64)})
	case bool:
		out = append(out, &Selector{value: strconv.FormatBool(v)})
	}

	return out
}

func (s *Selector) selectCSS(q Query) List {
	var matched []*html.Node
	if q.css == nil {
		matched = []*html.Node{s.node}
	} else {
		matched = goquery.NewDocumentFromNode(s.node).FindMatcher(q.css).Nodes
	}

	out := List{}
	for _, n := range matched {
		switch q.pseudo {
		case pseudoText:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					out = append(out, &Selector{node: c})
				}
			}
		case pseudoAttr:
			if val, ok := attr(n, q.attr); ok {
				out = append(out, &Selector{value: val})
			}
		default:
			out = append(out, &Selector{node: n})
		}
	}

	return out
}

// Get returns the string form of the result: the outer HTML of an element,
// the data of a text node, or the string value otherwise.
func (s *Selector) Get() string {
	if s.node == nil {
		return s.value
	}

	switch s.node.Type {
	case html.TextNode:
		return s.node.Data
	case html.CommentNode:
		return "<!--" + s.node.Data + "-->"
	default:
		return htmlquery.OutputHTML(s.node, true)
	}
}

// HTML returns the outer HTML of a node result, or "" for string results.
func (s *Selector) HTML() string {
	if s.node == nil {
		return ""
	}

	return htmlquery.OutputHTML(s.node, true)
}

// Attr returns the value of the named attribute of an element result.
func (s *Selector) Attr(name string) string {
	if s.node == nil {
		return ""
	}

	val, _ := attr(s.node, name)

	return val
}

// Text returns the concatenated text of the immediate child text nodes only.
// Text nested inside child elements is not included.
func (s *Selector) Text() string {
	if s.node == nil {
		return s.value
	}

	if s.node.Type == html.TextNode {
		return s.node.Data
	}

	var b strings.Builder
	for c := s.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	return b.String()
}

// AllText returns the concatenated text of every descendant text node.
func (s *Selector) AllText() string {
	if s.node == nil {
		return s.value
	}

	return htmlquery.InnerText(s.node)
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}

	return "", false
}
