// Package logging provides structured logging for the factory telemetry
// publisher and subscribers.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across every binary.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("tick published", "sent", 10, "failed", 0)
//
// Never log broker passwords, private key material or the InfluxDB token.
package logging
