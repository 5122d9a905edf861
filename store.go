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
	"net/url"
	"strings"
	"sync"
)

// Storer remembers the URLs a Harvester has scheduled, so that every URL is
// fetched at most once. A Storer may be shared between Harvesters.
type Storer interface {
	// Visited returns true if the URL has been visited.
	Visited(url string) bool
	// Visit marks the URL as visited. It returns false if the URL was
	// already marked, so check and mark happen as one step.
	Visit(url string) bool
}

// InMemoryStore is a Storer backed by a map.
type InMemoryStore struct {
	visited map[string]bool
	lock    *sync.RWMutex
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		visited: make(map[string]bool),
		lock:    &sync.RWMutex{},
	}
}

func (s *InMemoryStore) Visited(url string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.visited[url]
}

func (s *InMemoryStore) Visit(url string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.visited[url] {
		return false
	}
	s.visited[url] = true

	return true
}

// Len returns the number of stored URLs.
func (s *InMemoryStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.visited)
}

// normalizeURL returns the key used for visited checks. The scheme and host
// are lowercased, the fragment is dropped and an empty path becomes "/".
func normalizeURL(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	n.Fragment = ""
	n.RawFragment = ""
	if n.Path == "" {
		n.Path = "/"
	}

	return n.String()
}
