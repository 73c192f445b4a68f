// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Crawls are configured with per-site cookies and headers, and shop URLs
// often carry session or affiliate tokens in their query strings. The
// SecureHandler keeps those values out of log output:
//   - Attributes whose key names a secret (cookie, authorization, token, ...)
//   - Values that look like credentials (bearer tokens, JWTs, long API keys)
//   - Sensitive query parameters and passwords embedded in logged URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("fetching page",
//	    "url", "https://shop.example/cart?session=abc123", // session=***REDACTED***
//	    "cookie", "region=in",                            // ***REDACTED***
//	)
//
//	slog.SetDefault(logger)
package log
