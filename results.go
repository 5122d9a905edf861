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
	"errors"
	"slices"
)

// ErrStoreSealed is returned when a sealed ResultStore is written to.
var ErrStoreSealed = errors.New("result store is sealed")

// ResultStore accumulates records by key across a crawl.
//
// Keys keep the order in which they were first inserted. A key produced twice
// takes the values of the later record and the overwrite is counted. The
// store is written by a single goroutine and is not safe for concurrent
// writes; once sealed it is immutable and may be read from anywhere.
type ResultStore struct {
	keys       []string
	values     map[string][]string
	links      []string
	overwrites int
	stats      Stats
	sealed     bool
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		keys:   make([]string, 0),
		values: make(map[string][]string),
		links:  make([]string, 0),
	}
}

// Put inserts a record. It reports whether an existing key was overwritten.
func (s *ResultStore) Put(rec Record) (bool, error) {
	if s.sealed {
		return false, ErrStoreSealed
	}

	_, exists := s.values[rec.Key]
	if exists {
		s.overwrites++
	} else {
		s.keys = append(s.keys, rec.Key)
	}

	values := slices.Clone(rec.Values)
	if values == nil {
		values = []string{}
	}
	s.values[rec.Key] = values

	return exists, nil
}

// AddLink records a URL that was scheduled during the crawl.
func (s *ResultStore) AddLink(u string) error {
	if s.sealed {
		return ErrStoreSealed
	}

	s.links = append(s.links, u)

	return nil
}

// Seal makes the store immutable. Sealing twice is a no-op.
func (s *ResultStore) Seal() {
	s.sealed = true
}

// Sealed reports whether the store has been sealed.
func (s *ResultStore) Sealed() bool {
	return s.sealed
}

// Get returns a copy of the values stored under key.
func (s *ResultStore) Get(key string) ([]string, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}

	return slices.Clone(v), true
}

// Keys returns the keys in first-insertion order.
func (s *ResultStore) Keys() []string {
	return slices.Clone(s.keys)
}

// Map returns a copy of the key to values mapping.
func (s *ResultStore) Map() map[string][]string {
	out := make(map[string][]string, len(s.values))
	for k, v := range s.values {
		out[k] = slices.Clone(v)
	}

	return out
}

// Links returns the scheduled URLs in the order they were scheduled.
func (s *ResultStore) Links() []string {
	return slices.Clone(s.links)
}

// Len returns the number of keys.
func (s *ResultStore) Len() int {
	return len(s.keys)
}

// Stats returns the statistics of the crawl that produced the store.
func (s *ResultStore) Stats() Stats {
	return s.stats
}

// Overwrites returns how many times an existing key was replaced.
func (s *ResultStore) Overwrites() int {
	return s.overwrites
}
