package sink

import (
	"bufio"
	"io"

	"github.com/HRemonen/scrapyard"
)

// WriteLinks writes the scheduled URLs of the crawl, one per line.
func WriteLinks(w io.Writer, store *scrapyard.ResultStore) error {
	if err := checkSealed(store); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, link := range store.Links() {
		if _, err := bw.WriteString(link + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteLinksFile writes the links to path with WriteLinks.
func WriteLinksFile(path string, store *scrapyard.ResultStore) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteLinks(w, store)
	})
}
