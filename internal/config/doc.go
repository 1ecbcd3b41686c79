// Package config handles configuration loading for taskboard.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. The --config flag
//  2. Path from TASKBOARD_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/taskboard/config.yaml (~/.config when unset)
//
// A missing file is not an error for the CLI: Default() is used instead.
// Files ending in .toml are read as TOML, everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	storage:
//	  path: "${TASKBOARD_DATA}/profile.db"
//
// Syntax: ${VAR_NAME}. A leading ~/ in storage.path is expanded to the home directory.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	storage:
//	  driver: "sqlite"        # sqlite, bolt, memory
//	  path: "~/.local/share/taskboard/profile.db"
//	  open_timeout: "2s"      # bolt only: give up when another process holds the file
//
//	tasks:
//	  owner_only: false       # true hides other users' tasks
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// The same file in TOML:
//
//	[server]
//	http_addr = "127.0.0.1:8080"
//
//	[storage]
//	driver = "bolt"
//	path = "/var/lib/taskboard/profile.bolt"
package config
