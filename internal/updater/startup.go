package updater

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/branding"
)

// refreshTimeout bounds the background release check.
const refreshTimeout = 10 * time.Second

// CheckAndPrintBanner checks the version cache and prints an update banner if
// a newer version is available. It never blocks; a stale cache is refreshed
// in the background for the next invocation.
func (u *Updater) CheckAndPrintBanner(w io.Writer, configDir string) {
	cache, err := LoadCache(configDir)
	if err != nil {
		u.log.Debug("ignoring unreadable version cache", "err", err)
		return
	}

	source := u.Source()
	if cache.Announces(u.currentVersion, source) {
		PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion)
	}

	if IsCacheStale(cache, DefaultCacheMaxAge) || cache.Source != source {
		go u.RefreshCache(context.Background(), configDir)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    Run `%s update` to upgrade\n\n", branding.CLIName())
}

// RefreshCache fetches the latest version and updates the cache file.
// Failures are logged at debug level only.
func (u *Updater) RefreshCache(ctx context.Context, configDir string) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	release, err := u.CheckLatestVersion(ctx)
	if err != nil {
		u.log.Debug("background version check failed", "err", err)
		return
	}

	available, err := IsUpdateAvailable(u.currentVersion, release.Version)
	if err != nil {
		u.log.Debug("comparing versions", "err", err)
		return
	}

	cache := &VersionCache{
		LatestVersion:   release.Version,
		CurrentVersion:  u.currentVersion,
		CheckedAt:       time.Now(),
		UpdateAvailable: available,
		ReleaseURL:      release.HTMLURL,
		Source:          u.Source(),
	}
	if err := SaveCache(configDir, cache); err != nil {
		u.log.Debug("saving version cache", "err", err)
	}
}
