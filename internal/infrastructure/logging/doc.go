// Package logging provides structured logging for the Gray Logic sensor node.
//
// This package wraps Go's standard log/slog package so that every wake
// cycle emits the same machine-parsable fields. On the device the output
// is the only diagnostic surface besides the durable reading log.
//
// # Features
//
//   - JSON output for field deployments (machine-parsable)
//   - Text output for bench work (human-readable)
//   - Default fields (service, version, node_id) on all log entries
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
//	logger := logging.New(cfg.Logging, version, cfg.Node.ID)
//	logger.Info("cycle complete", "sleep", d)
//	logger.Error("queue write failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
