// Package config handles configuration loading for guardian.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Every setting has a default, so guardian runs without a file.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from GUARDIAN_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/guardian/config.yaml
//  3. ~/.config/guardian/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	alert:
//	  sender_name: "${GUARDIAN_NAME}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	alert:
//	  location_timeout: "10s"
//	  send_timeout: "30s"
//
// # Configuration Sections
//
// Storage:
//
//	storage:
//	  driver: "sqlite"   # sqlite (pure Go), sqlite3 (cgo), memory
//	  path: "/home/dana/.local/share/guardian/guardian.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Alerts:
//
//	alert:
//	  sender_name: "Dana"      # value of [NAME]
//	  location_timeout: "10s"
//	  send_timeout: "30s"
//	  log_limit: 50            # alert log and location history entries kept
//
// Simulated device capabilities:
//
//	location:
//	  enabled: true
//	  permission: "granted"    # granted, denied
//	  latitude: 35.7796
//	  longitude: -78.6382
//	  latency: "500ms"
//
//	sms:
//	  enabled: true
//	  outbox: "/tmp/guardian-outbox.jsonl"
//
//	address_book:
//	  path: "/home/dana/contacts.toml"
//
// # Usage
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
