// Package config handles configuration management for doppel.
// It supports loading configuration from multiple sources including
// the embedded defaults, TOML or YAML files, environment variables,
// and command-line flags. Later sources override earlier ones.
package config
