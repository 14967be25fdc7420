// Package config loads, normalizes, and validates mangashelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MANGASHELF_LLM_API_KEY and GEMINI_API_KEY. The Config type centralizes the
// library location, ingestion defaults, provider credentials, and language
// selection for both pipelines.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, ISO 639-1 language codes, and clear validation errors.
package config
