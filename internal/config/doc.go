// Package config loads and validates the YAML configuration for a
// footprint engine instance. ${VAR} references in the file are expanded
// from the environment before parsing; missing optional fields receive
// defaults.
package config
