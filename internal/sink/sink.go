// Package sink writes the results of a finished crawl.
//
// Every writer accepts only a sealed ResultStore, so output is produced once
// the crawl can no longer change it.
package sink

import (
	"errors"

	"github.com/HRemonen/scrapyard"
)

var (
	// ErrNilStore is returned when a writer is given no store.
	ErrNilStore = errors.New("result store is nil")
	// ErrUnsealed is returned when a writer is given a store that is still being written.
	ErrUnsealed = errors.New("result store is not sealed")
)

func checkSealed(store *scrapyard.ResultStore) error {
	if store == nil {
		return ErrNilStore
	}
	if !store.Sealed() {
		return ErrUnsealed
	}

	return nil
}
