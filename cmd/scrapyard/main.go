// Package main provides the entry point for the scrapyard CLI.
//
// Usage:
//
//	scrapyard crawl -c spider.yaml
//	scrapyard query --xpath '//h1/text()' https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
