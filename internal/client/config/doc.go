// Package config loads runtime configuration for the homeshare CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   local SQLite database path
//	-r string   password-reset redirect URL
//	-l string   log file
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "homeshare.db",
//	  "reset_redirect_url": "http://localhost:8080/auth/reset-password",
//	  "log_file": "homeshare.log"
//	}
package config
