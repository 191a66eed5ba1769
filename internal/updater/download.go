package updater

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/riptidestudio/earthlauncher/internal/archive"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

const checksumsAsset = "checksums.txt"

// DownloadBinary downloads the asset for the current platform into destDir
// and returns the archive path.
func (u *Updater) DownloadBinary(ctx context.Context, release *Release, destDir string, onProgress transfer.ProgressFunc) (string, error) {
	asset, err := SelectAssetForPlatform(release.Assets)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, asset.Name)
	if err := u.engine().Download(ctx, asset.DownloadURL, destPath, onProgress); err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	return destPath, nil
}

// VerifyChecksum downloads checksums.txt from the release and verifies the archive.
func (u *Updater) VerifyChecksum(ctx context.Context, release *Release, archivePath string) error {
	var checksumAsset *Asset
	for i := range release.Assets {
		if release.Assets[i].Name == checksumsAsset {
			checksumAsset = &release.Assets[i]
			break
		}
	}
	if checksumAsset == nil {
		return fmt.Errorf("%s not found in release assets", checksumsAsset)
	}

	sumsPath := filepath.Join(filepath.Dir(archivePath), checksumsAsset)
	if err := u.engine().Download(ctx, checksumAsset.DownloadURL, sumsPath, nil); err != nil {
		return fmt.Errorf("downloading checksums: %w", err)
	}
	defer os.Remove(sumsPath)

	expectedHash, err := lookupChecksum(sumsPath, filepath.Base(archivePath))
	if err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}

	actualHash := hex.EncodeToString(h.Sum(nil))
	if actualHash != expectedHash {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedHash, actualHash)
	}
	return nil
}

// lookupChecksum parses checksums.txt ("sha256  filename" per line).
func lookupChecksum(path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading checksums: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Fields(sc.Text())
		if len(parts) == 2 && parts[1] == name {
			return parts[0], nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading checksums: %w", err)
	}
	return "", fmt.Errorf("no checksum found for %s in %s", name, checksumsAsset)
}

// ExtractBinary unpacks the release archive into destDir and returns the path
// of the launcher binary inside it.
func ExtractBinary(ctx context.Context, archivePath, destDir string) (string, error) {
	if err := archive.Extract(ctx, archivePath, destDir, nil, archive.KeepArchive()); err != nil {
		return "", fmt.Errorf("extracting release: %w", err)
	}

	want := BinaryName()
	var found string
	err := filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching extracted release: %w", err)
	}
	if found == "" {
		return "", errors.New(want + " binary not found in archive")
	}
	return found, nil
}
