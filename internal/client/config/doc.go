// Package config loads runtime configuration for the CareFollow CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if any, and CAREFOLLOW_*
//     environment variables.
//  3. Optional JSON file selected via -c or --config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a, --server string      backend base URL
//	-t, --timeout duration   default request timeout
//	-c, --config string      JSON config file
//
// Environment
//
//	CAREFOLLOW_SERVER_URL, CAREFOLLOW_DATABASE_PATH, CAREFOLLOW_REQUEST_TIMEOUT,
//	CAREFOLLOW_VALIDATE_ON_STARTUP, CAREFOLLOW_CALLBACK_ADDR,
//	CAREFOLLOW_AUTH_PROVIDER_URL, CAREFOLLOW_LOG_LEVEL
//
// # JSON schema
//
// Durations may be strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://carefollow.example.com",
//	  "database_path": "/home/ana/.config/carefollow/session.db",
//	  "request_timeout": "30s",
//	  "validate_on_startup": true,
//	  "callback_addr": "127.0.0.1:7788",
//	  "auth_provider_url": "https://auth.example.com",
//	  "log_level": "info"
//	}
package config
