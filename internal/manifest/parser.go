package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Parse reads a game manifest file.
func Parse(path string) (*GameManifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var m GameManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Load reads game.yaml from the top of gameDir. A missing manifest is
// reported with an error matching fs.ErrNotExist.
func Load(gameDir string) (*GameManifest, error) {
	return Parse(filepath.Join(gameDir, FileName))
}

// SemVer parses the manifest version. A leading "v" is accepted.
func (m *GameManifest) SemVer() (*semver.Version, error) {
	if m.Version == "" {
		return nil, fmt.Errorf("manifest %q has no version", m.Name)
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest %q version %q: %w", m.Name, m.Version, err)
	}
	return v, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
