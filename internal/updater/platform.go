package updater

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/riptidestudio/earthlauncher/internal/branding"
)

// ArchiveName returns the expected archive filename for the current platform:
// {cli}_{os}_{arch}.zip.
func ArchiveName() string {
	return fmt.Sprintf("%s_%s_%s.zip", branding.CLIName(), runtime.GOOS, runtime.GOARCH)
}

// BinaryName returns the executable name inside a release archive.
func BinaryName() string {
	if IsWindows() {
		return branding.CLIName() + ".exe"
	}
	return branding.CLIName()
}

// SelectAssetForPlatform finds the asset matching the current OS/arch.
func SelectAssetForPlatform(assets []Asset) (*Asset, error) {
	expected := ArchiveName()
	for i := range assets {
		if assets[i].Name == expected {
			return &assets[i], nil
		}
	}

	// Try a more flexible match: look for the os_arch pattern anywhere in the name.
	pattern := fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH)
	for i := range assets {
		if strings.Contains(assets[i].Name, pattern) && strings.HasSuffix(assets[i].Name, ".zip") {
			return &assets[i], nil
		}
	}

	return nil, fmt.Errorf("no asset found for %s/%s (expected %s)", runtime.GOOS, runtime.GOARCH, expected)
}

// IsWindows returns true if the current OS is Windows.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
