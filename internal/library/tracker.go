package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrInvalidName rejects a game name that cannot be a directory under
	// the install root.
	ErrInvalidName = errors.New("invalid game name")
	// ErrNotInstalled is returned when no directory exists for the game.
	ErrNotInstalled = errors.New("game is not installed")
	// ErrAlreadyInstalled is returned by an install whose target exists.
	ErrAlreadyInstalled = errors.New("game is already installed")
)

// Tracker answers installed-state questions by scanning the install root.
// Nothing is cached between calls.
type Tracker struct {
	root string
}

// NewTracker returns a Tracker for root.
func NewTracker(root string) *Tracker {
	return &Tracker{root: root}
}

// Root returns the install root.
func (t *Tracker) Root() string { return t.root }

// ValidName rejects names that are empty, hidden, or would escape the
// install root.
func ValidName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w %q: hidden", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w %q: contains a path separator", ErrInvalidName, name)
	case filepath.VolumeName(name) != "":
		return fmt.Errorf("%w %q: contains a volume name", ErrInvalidName, name)
	}
	return nil
}

// Path returns the directory a game is (or would be) installed in.
func (t *Tracker) Path(name string) string {
	return filepath.Join(t.root, name)
}

// IsInstalled reports whether name has a directory under the install root.
func (t *Tracker) IsInstalled(name string) bool {
	if ValidName(name) != nil {
		return false
	}
	info, err := os.Stat(t.Path(name))
	return err == nil && info.IsDir()
}

// ListInstalled returns the set of installed game names. A missing install
// root means nothing is installed.
func (t *Tracker) ListInstalled() (map[string]struct{}, error) {
	entries, err := os.ReadDir(t.root)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning install root: %w", err)
	}
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			set[e.Name()] = struct{}{}
			continue
		}
		// Follow symlinked game directories.
		if e.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(t.root, e.Name())); err == nil && info.IsDir() {
				set[e.Name()] = struct{}{}
			}
		}
	}
	return set, nil
}

// Installed returns the installed game names in sorted order.
func (t *Tracker) Installed() ([]string, error) {
	set, err := t.ListInstalled()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Remove uninstalls a game by deleting its directory.
func (t *Tracker) Remove(name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if !t.IsInstalled(name) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if err := os.RemoveAll(t.Path(name)); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}
