// Package config loads, normalizes, and validates wavepipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WAVEPIPE_API_TOKEN. The Config type centralizes every knob the server and CLI
// need, so the engine location, cookies file and workspace directory are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
