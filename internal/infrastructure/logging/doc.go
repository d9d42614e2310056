// Package logging provides structured logging for the settings service.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service and version fields on every entry.
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
//	logger.Info("settings loaded", "path", cfg.Settings.Path)
//
// Never log credentials. Database settings passwords and the InfluxDB token
// stay out of log fields.
package logging
