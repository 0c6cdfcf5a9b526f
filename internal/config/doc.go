// Package config loads, normalizes, and validates crate configuration.
//
// Configuration lives in a TOML file (default ~/.config/crate/config.toml, or
// ./crate.toml in the working directory). Missing values fall back to the
// defaults in defaults.go, and every path is expanded to an absolute location
// before use. The resulting *Config is built once at process start and passed
// to each component constructor; packages never compute data locations on
// their own.
package config
