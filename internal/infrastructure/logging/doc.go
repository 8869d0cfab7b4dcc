// Package logging provides structured logging for the capture bridge.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for production, text output for development
//   - service and version attributes on every entry
//   - level filtering (debug, info, warn, error)
//
// Logging is configured via the logging section in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("stream ready", "stream", "color")
//
// Never log secrets, tokens or passwords.
package logging
