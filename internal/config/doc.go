// Package config loads, normalizes, and validates the TOML
// configuration file. Loading never fails on a missing file; defaults
// produce a working setup.
package config
