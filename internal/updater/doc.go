// Package updater implements the launcher's self-update. It checks GitHub
// Releases (or a configured mirror) for a newer version, downloads the
// platform archive through the transfer engine, verifies its checksum,
// extracts the binary and swaps it for the running executable with a
// backup to roll back to. A daily-cached version check powers the startup
// banner.
package updater
