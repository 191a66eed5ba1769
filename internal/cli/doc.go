// Package cli defines the Cobra command tree for the earthlauncher CLI. Each
// file registers one top-level command (list, install, play, browse, etc.)
// with the root command. Commands build a library.Library from the loaded
// settings and only handle flag parsing, output formatting and user
// interaction.
package cli
