// Package config handles loading and validating FIWARE Gateway configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (client secrets, JWT secrets, broker passwords) should
//     be set via environment variables, never committed in the config file
//   - The config file should have restricted permissions (0600)
//   - The JWT secret must be changed from any sample value before production use
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Keyrock.URL)
package config
