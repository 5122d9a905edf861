package selector

import "strings"

// List is an ordered sequence of query results. A single query returns its
// matches in document order. A query chained through List.Select runs once
// per item and concatenates the results, so nested items can yield the same
// node more than once.
type List []*Selector

// Get returns the string form of the first result, or "" if the list is empty.
func (l List) Get() string {
	if len(l) == 0 {
		return ""
	}

	return l[0].Get()
}

// GetAll returns the string form of every result.
func (l List) GetAll() []string {
	out := make([]string, 0, len(l))
	for _, s := range l {
		out = append(out, s.Get())
	}

	return out
}

// Attr returns the named attribute of the first element result that has it.
func (l List) Attr(name string) string {
	for _, s := range l {
		if s.node == nil {
			continue
		}
		if val, ok := attr(s.node, name); ok {
			return val
		}
	}

	return ""
}

// Text concatenates the direct text of every result.
func (l List) Text() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text())
	}

	return b.String()
}

// AllText concatenates the descendant text of every result.
func (l List) AllText() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.AllText())
	}

	return b.String()
}

// Select runs q against every result and concatenates the matches in item
// order. Matches are not deduplicated.
func (l List) Select(q Query) List {
	out := List{}
	for _, s := range l {
		out = append(out, s.Select(q)...)
	}

	return out
}

// XPath compiles expr and runs it against every result.
func (l List) XPath(expr string) (List, error) {
	q, err := NewXPath(expr)
	if err != nil {
		return nil, err
	}

	return l.Select(q), nil
}

// CSS compiles sel and runs it against every result.
func (l List) CSS(sel string) (List, error) {
	q, err := NewCSS(sel)
	if err != nil {
		return nil, err
	}

	return l.Select(q), nil
}
