package selector

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// ErrInvalidQuery is returned when an XPath or CSS query cannot be compiled.
var ErrInvalidQuery = errors.New("invalid query")

// Lang is the surface syntax of a Query.
type Lang int

const (
	// LangXPath is an XPath 1.0 expression.
	LangXPath Lang = iota + 1
	// LangCSS is a CSS selector, optionally ending in ::text or ::attr(name).
	LangCSS
)

func (l Lang) String() string {
	switch l {
	case LangXPath:
		return "xpath"
	case LangCSS:
		return "css"
	default:
		return "unknown"
	}
}

// pseudo is the trailing CSS pseudo-element of a query.
type pseudo int

const (
	pseudoNone pseudo = iota
	pseudoText
	pseudoAttr
)

// Query is a compiled XPath or CSS query. The zero value matches nothing.
// A Query is immutable and safe for concurrent use.
type Query struct {
	lang Lang
	raw  string

	xp *compiledXPath

	css    cascadia.Selector
	pseudo pseudo
	attr   string
}

// Lang returns the surface syntax of the query.
func (q Query) Lang() Lang { return q.lang }

// String returns the query as it was written.
func (q Query) String() string { return q.raw }

// compiledXPath guards an expression whose evaluation mutates its internal
// query state. Only Evaluate needs the lock; the returned iterator is a clone.
type compiledXPath struct {
	mu   sync.Mutex
	expr *xpath.Expr
}

func (c *compiledXPath) evaluate(nav xpath.NodeNavigator) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expr.Evaluate(nav)
}

// compiled XPath expressions keyed by source text.
var xpathCache sync.Map

// NewXPath compiles an XPath query.
func NewXPath(expr string) (Query, error) {
	if cached, ok := xpathCache.Load(expr); ok {
		return Query{lang: LangXPath, raw: expr, xp: cached.(*compiledXPath)}, nil
	}

	compiled, err := xpath.Compile(expr)
	if err != nil {
		return Query{}, fmt.Errorf("%w: xpath %q: %v", ErrInvalidQuery, expr, err)
	}
	actual, _ := xpathCache.LoadOrStore(expr, &compiledXPath{expr: compiled})

	return Query{lang: LangXPath, raw: expr, xp: actual.(*compiledXPath)}, nil
}

// NewCSS compiles a CSS query. Two pseudo-elements are understood at the end
// of the query: ::text selects the direct child text nodes of every match and
// ::attr(name) selects the value of the named attribute.
func NewCSS(sel string) (Query, error) {
	q := Query{lang: LangCSS, raw: sel}

	base := strings.TrimSpace(sel)
	// Anything else after "::" is left for cascadia, which rejects
	// pseudo-elements it does not know.
	if i := strings.LastIndex(base, "::"); i >= 0 {
		pe := strings.TrimSpace(base[i+2:])

		switch {
		case pe == "text":
			q.pseudo = pseudoText
			base = strings.TrimSpace(base[:i])
		case strings.HasPrefix(pe, "attr(") && strings.HasSuffix(pe, ")"):
			q.pseudo = pseudoAttr
			q.attr = strings.TrimSpace(pe[len("attr(") : len(pe)-1])
			if q.attr == "" {
				return Query{}, fmt.Errorf("%w: css %q: empty attribute name", ErrInvalidQuery, sel)
			}
			base = strings.TrimSpace(base[:i])
		}
	}

	// A bare "::text" applies to the current node itself.
	if base == "" {
		if q.pseudo == pseudoNone {
			return Query{}, fmt.Errorf("%w: css: empty selector", ErrInvalidQuery)
		}
		return q, nil
	}

	compiled, err := cascadia.Compile(base)
	if err != nil {
		return Query{}, fmt.Errorf("%w: css %q: %v", ErrInvalidQuery, sel, err)
	}
	q.css = compiled

	return q, nil
}

// MustXPath is like NewXPath but panics if the expression cannot be compiled.
func MustXPath(expr string) Query {
	q, err := NewXPath(expr)
	if err != nil {
		panic(err)
	}
	return q
}

// MustCSS is like NewCSS but panics if the selector cannot be compiled.
func MustCSS(sel string) Query {
	q, err := NewCSS(sel)
	if err != nil {
		panic(err)
	}
	return q
}

// New compiles expr in the given language.
func New(lang Lang, expr string) (Query, error) {
	switch lang {
	case LangXPath:
		return NewXPath(expr)
	case LangCSS:
		return NewCSS(expr)
	default:
		return Query{}, fmt.Errorf("%w: unknown language %d", ErrInvalidQuery, lang)
	}
}
