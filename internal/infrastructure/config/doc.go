// Package config handles loading and validating switchsched configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Device credentials (fritz.password, mqtt.auth.password) should be set
//     via environment variables rather than written to the config file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Schedule.Path = flagSchedule // CLI flags win over file and env
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
