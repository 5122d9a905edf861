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
	"slices"
)

// Kind names a type of page. Every Request carries a Kind, and the Harvester
// dispatches the response to the Handler registered for it.
type Kind string

// Handler extracts records and follow-up links from a page.
//
// Handlers run on worker goroutines and must not touch shared state; the
// Harvester merges their Result into the ResultStore itself. A field that is
// missing from the page should be skipped rather than reported as an error.
type Handler func(ctx context.Context, res *Response) (Result, error)

// Result is what a Handler produces for one page.
type Result struct {
	Records []Record
	Follows []Follow
}

// Record is a key with its extracted values, e.g. a course title and the
// titles of its chapters. A single-valued field has one value.
type Record struct {
	Key    string
	Values []string
}

// Follow is a link to schedule with the handler registered for Kind.
// A relative URL is resolved against the page it was found on.
type Follow struct {
	URL  string
	Kind Kind
}

// handlers is the closed set of page kinds a Harvester knows how to process.
type handlers map[Kind]Handler

func (h handlers) lookup(kind Kind) (Handler, bool) {
	fn, ok := h[kind]
	return fn, ok
}

func (h handlers) kinds() []Kind {
	out := make([]Kind, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	slices.Sort(out)

	return out
}
