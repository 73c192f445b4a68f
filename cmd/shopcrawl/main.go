// Package main provides the entry point for the shopcrawl CLI.
//
// shopcrawl crawls e-commerce sites breadth-first and collects the URLs of
// their product pages into a JSON file keyed by domain.
//
// Usage:
//
//	shopcrawl crawl [domain...]
//	shopcrawl history [run-id]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
