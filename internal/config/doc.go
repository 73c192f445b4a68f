// Package config provides configuration structures and utilities for shopcrawl.
// It defines the crawl settings, the optional YAML configuration file with
// per-site overrides, and the XDG locations used for the run history.
package config
