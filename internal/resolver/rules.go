package resolver

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/riptidestudio/earthlauncher/internal/platform"
)

// DefaultCandidates are the conventional entry-point names, in priority order.
var DefaultCandidates = []string{"GameRuntime", "game", "main", "start", "run", "launch", "app", "program"}

// ManifestRule honours the entry declared in game.yaml.
type ManifestRule struct{}

// Name implements Rule.
func (ManifestRule) Name() string { return "manifest" }

// Match returns the executable named by the directory's manifest, if any.
func (ManifestRule) Match(dir string, _ []string) string {
	m, err := manifest.Load(dir)
	if err != nil || m.Entry == "" {
		return ""
	}
	path := filepath.Join(dir, filepath.FromSlash(m.Entry))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return path
}

// CandidateNameRule matches a well-known entry-point name, optionally
// followed by a native executable extension. Candidate order takes
// precedence over directory order.
type CandidateNameRule struct {
	Candidates []string
}

// Name implements Rule.
func (CandidateNameRule) Name() string { return "candidate-name" }

// Match returns the first file whose name is one of the candidates.
func (r CandidateNameRule) Match(dir string, files []string) string {
	for _, cand := range r.Candidates {
		for _, f := range files {
			if strings.EqualFold(f, cand) {
				return filepath.Join(dir, f)
			}
			for _, ext := range platform.ExecutableExtensions {
				if strings.EqualFold(f, cand+ext) {
					return filepath.Join(dir, f)
				}
			}
		}
	}
	return ""
}

// ExecutableBitRule matches the first file the current user can execute.
type ExecutableBitRule struct{}

// Name implements Rule.
func (ExecutableBitRule) Name() string { return "executable-bit" }

// Match returns the first regular file with an execute bit set.
func (ExecutableBitRule) Match(dir string, files []string) string {
	for _, f := range files {
		path := filepath.Join(dir, f)
		if platform.IsExecutable(path) {
			return path
		}
	}
	return ""
}

// CapitalizedBareRule matches an extensionless file whose name starts with
// an upper-case letter, the usual shape of an exported game binary.
type CapitalizedBareRule struct{}

// Name implements Rule.
func (CapitalizedBareRule) Name() string { return "capitalized-bare" }

// Match returns the first extensionless file starting with a capital letter.
func (CapitalizedBareRule) Match(dir string, files []string) string {
	for _, f := range files {
		if filepath.Ext(f) != "" {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(f); unicode.IsUpper(r) {
			return filepath.Join(dir, f)
		}
	}
	return ""
}

// ScriptRule matches the first script anywhere under the game directory.
type ScriptRule struct {
	Extensions []string
}

// Name implements Rule.
func (ScriptRule) Name() string { return "script" }

// Match returns the first script with a known extension.
func (r ScriptRule) Match(dir string, _ []string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the walk.
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, want := range r.Extensions {
			if ext == want {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}
