// Package config handles loading and validating the settings service configuration.
//
// This is the service's own configuration (where the settings document
// lives, which brokers to notify). The settings document itself is handled by
// the document and settings packages.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with PVSETTINGS_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Credentials (MQTT password, InfluxDB token) should be set via environment
// variables rather than committed to the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/pvsettings.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Settings.Path)
package config
