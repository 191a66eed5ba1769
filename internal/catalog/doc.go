// Package catalog lists the games available for installation.
//
// A Source produces the catalog: GitHubSource reads a directory of zip
// archives through the GitHub contents API and LocalSource scans a local
// directory for archives. Fallback chains the two and never fails; when
// both tiers are unavailable the catalog is simply empty.
package catalog
