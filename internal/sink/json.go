package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/HRemonen/scrapyard"
)

// WriteJSON writes the store as a JSON object mapping each key to its list of
// values. The output is UTF-8, indented with two spaces, and does not escape HTML.
func WriteJSON(w io.Writer, store *scrapyard.ResultStore) error {
	if err := checkSealed(store); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(store.Map()); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	return nil
}

// ReadJSON reads a document written by WriteJSON.
func ReadJSON(r io.Reader) (map[string][]string, error) {
	out := make(map[string][]string)
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	return out, nil
}

// WriteJSONFile writes the store to path with WriteJSON.
func WriteJSONFile(path string, store *scrapyard.ResultStore) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, store)
	})
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return write(f)
}
