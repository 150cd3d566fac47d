// Package logging provides structured logging for switchsched.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same handler, level and default fields.
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
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("schedule loaded", "entries", s.Len())
//	logger.Error("action failed", "error", err)
//
// Never log device passwords or session ids.
package logging
