package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the spider file does not exist.
var ErrConfigNotFound = errors.New("spider file not found")

// LoadFile reads a spider definition from a YAML file, applies the
// defaults and validates it. If the file does not exist, it returns
// ErrConfigNotFound.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided spider path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	return Load(bytes.NewReader(data))
}

// Load decodes a spider definition, applies the defaults and validates it.
// Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSeeds
		}
		return nil, fmt.Errorf("decode spider: %w", err)
	}

	f.ApplyDefaults()

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}
