// Package config loads, normalizes, and validates carvelens configuration
// from TOML files with sensible defaults for every field.
package config
