// Package config loads, normalizes, and validates the reelforge TOML
// configuration. Paths are expanded (including ~) and defaulted so the rest
// of the codebase never needs to reason about missing or relative values.
package config
