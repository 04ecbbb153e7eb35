// Package logging provides structured logging for Pool Watch Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8000)
//	logger.Error("tunnel failed", "error", err)
//
// # Security
//
// Never log session tokens, SSH or database passwords.
// Log a short token prefix when correlation is needed.
package logging
