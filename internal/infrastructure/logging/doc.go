// Package logging provides structured logging for hearthctl.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for machine consumption (relay mode under systemd)
//   - Text output for interactive terminal use
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stderr, stdout
//
// Logs go to stderr by default so that command output on stdout stays
// pipeable into jq and friends.
//
// # Security
//
// Never log the hub access token or broker passwords.
package logging
