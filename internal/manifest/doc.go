// Package manifest handles the two YAML documents a game directory may carry:
// game.yaml, an optional manifest shipped inside the archive that names the
// entry point, version and launch environment; and .earthlauncher.yaml, the
// install record the launcher writes next to it. game.yaml is validated
// against an embedded JSON schema.
package manifest
