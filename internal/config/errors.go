package config

import "errors"

// Configuration validation errors, returned by File.Validate and checked
// with errors.Is.
var (
	// ErrNoSeeds is returned when the definition has no seed pages.
	ErrNoSeeds = errors.New("no seeds: at least one seed url is required")

	// ErrInvalidSeed is returned when a seed has no url or its url cannot be parsed.
	ErrInvalidSeed = errors.New("invalid seed url")

	// ErrNoHandlers is returned when no page kind is defined.
	ErrNoHandlers = errors.New("no handlers defined")

	// ErrUnknownKind is returned when a seed or follow rule names a kind without a handler.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrQueryLang is returned when a query sets neither or both of xpath and css.
	// Expressions that do not compile return selector.ErrInvalidQuery.
	ErrQueryLang = errors.New("invalid query: set exactly one of xpath or css")

	// ErrInvalidFollow is returned when a follow rule has both a query and
	// all_links, or sets records without all_links.
	ErrInvalidFollow = errors.New("invalid follow rule: use a query or all_links, not both, and records only with all_links")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidLimit is returned when a depth, page or rate limit is negative.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
