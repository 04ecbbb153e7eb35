// Package config handles loading and validating Pool Watch Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading an optional .env file for local credentials
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - SSH and database credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.SSH.Host)
package config
