// Package config loads, validates, and holds Sextant's configuration.
//
// Settings come from three layers, each overriding the one before it:
// built-in defaults, an optional YAML file, and SEXTANT_* environment
// variables. The file is genuinely optional; deployments routinely run on
// environment variables alone, and the only setting with no default at
// all is the discovery backend hostname.
//
// LoadConfig reads just the file; LoadConfigWithEnvOverrides applies the
// environment on top and is what the commands use:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// The environment names flatten the YAML paths under one prefix:
// SEXTANT_BACKEND_HOSTNAME maps to discovery.backend_hostname,
// SEXTANT_LISTEN_ADDRESS to proxy.listen_address, SEXTANT_LOG_LEVEL to
// telemetry.log_level, and so on.
//
// Every load path ends in validation, which checks the required hostname,
// port and ratio ranges, address formats, and the audit prune cron
// expression. Failures name the offending field and how to set it:
//
//	configuration validation failed: discovery.backend_hostname: backend
//	hostname is required (set discovery.backend_hostname or
//	SEXTANT_BACKEND_HOSTNAME)
//
// A minimal file needs only the hostname:
//
//	discovery:
//	  backend_hostname: "pods.internal.example.com"
//
// Long-lived processes keep the loaded config in the package singleton:
// Initialize at startup, then GetConfig anywhere after. Tests should pass
// explicit Config values instead of going through the singleton.
package config
