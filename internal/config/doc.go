// Package config loads, normalizes, and validates montage configuration from
// TOML. All path fields are tilde-expanded and absolute after Load.
package config
