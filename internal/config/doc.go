// Package config loads declarative spider definitions from YAML.
// A definition names the seed pages, the rules each page kind applies,
// the crawl limits, the fetch settings and where results are written.
package config
