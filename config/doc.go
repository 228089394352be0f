// Package config provides configuration loading and validation for stowgate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (STOWGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with STOWGATE_ prefix:
//   - server.port → STOWGATE_SERVER_PORT
//   - store.backend → STOWGATE_STORE_BACKEND
//   - cache.default_ttl → STOWGATE_CACHE_DEFAULT_TTL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev or prod, selects the log format
//   - Server: port and http.Server timeouts
//   - Store: object backend, filesystem or s3
//   - Storage: directory served by the filesystem backend
//   - Database: metadata and response cache tables
//   - S3: bucket, endpoint and credentials for the s3 backend
//   - Cache: response cache backend, lifetimes and limits
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// Durations accept Go duration strings such as "30s" or "1h".
package config
