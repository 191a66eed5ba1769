// Package config manages launcher settings stored at ~/.earthlauncher/config.yaml.
// Load reads the file and EARTHLAUNCHER_* environment overrides once and
// returns an immutable Settings value that callers pass into each component.
package config
