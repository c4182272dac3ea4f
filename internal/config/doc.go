// Package config loads, normalizes, and validates minutes configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks for provider secrets such as LLM_API_KEY,
// RESEND_API_KEY and TRANSCRIPTION_API_KEY. The Config type centralizes every
// knob the server and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
