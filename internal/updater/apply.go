package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

// Apply downloads release, verifies it when the release publishes
// checksums, and replaces the binary at exePath.
func (u *Updater) Apply(ctx context.Context, release *Release, exePath string, onProgress transfer.ProgressFunc) error {
	if IsWindows() {
		return ReplaceBinary("", exePath, release.Version)
	}

	tmp, err := os.MkdirTemp("", branding.CLIName()+"-update-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	archivePath, err := u.DownloadBinary(ctx, release, tmp, onProgress)
	if err != nil {
		return err
	}

	if hasAsset(release, checksumsAsset) {
		if err := u.VerifyChecksum(ctx, release, archivePath); err != nil {
			return err
		}
	} else {
		u.log.Warn("release has no checksums, skipping verification", "version", release.Version)
	}

	bin, err := ExtractBinary(ctx, archivePath, filepath.Join(tmp, "extract"))
	if err != nil {
		return err
	}

	u.log.Info("replacing binary", "path", exePath, "version", release.Version)
	return ReplaceBinary(bin, exePath, release.Version)
}

func hasAsset(release *Release, name string) bool {
	for _, a := range release.Assets {
		if a.Name == name {
			return true
		}
	}
	return false
}
