// Package config loads, normalizes, and validates nfodate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NFODATE_ROOT and NFODATE_EMBY_API_KEY. The Config type centralizes the
// library root, sidecar conventions, backup naming and the optional
// integrations so every command sees the same sanitized values.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
