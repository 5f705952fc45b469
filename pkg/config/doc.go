// Package config provides configuration management for the procurement
// service.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// An empty path starts from the defaults alone, which is how the CLI runs
// without a config file.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PROCUREMENT_SECTION_FIELD.
// For example:
//
//   - PROCUREMENT_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PROCUREMENT_BUDGET_REDIS_URL overrides budget.redis.url
//   - PROCUREMENT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	catalog:
//	  path: "./data"
//	  watch: true
//
//	budget:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/ledger.db"
//	  rollover:
//	    enabled: true
//
//	audit:
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
