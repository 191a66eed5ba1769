package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/platform"
)

// ErrNoExecutable is returned when no rule matches.
var ErrNoExecutable = errors.New("no executable found")

// Rule is one step of the executable discovery policy.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string
	// Match returns the absolute path of the chosen file, or "" when the
	// rule does not apply. files holds the visible regular files directly
	// under dir, sorted by name.
	Match(dir string, files []string) string
}

// Resolver applies rules in order.
type Resolver struct {
	rules []Rule
	log   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRules replaces the default rule list.
func WithRules(rules ...Rule) Option {
	return func(r *Resolver) {
		r.rules = rules
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New returns a Resolver using DefaultRules unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{rules: DefaultRules()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log)
	return r
}

// DefaultRules returns the launcher's discovery policy.
func DefaultRules() []Rule {
	return []Rule{
		ManifestRule{},
		CandidateNameRule{Candidates: DefaultCandidates},
		ExecutableBitRule{},
		CapitalizedBareRule{},
		ScriptRule{Extensions: []string{".py", ".sh"}},
	}
}

// Rules returns the rules in evaluation order.
func (r *Resolver) Rules() []Rule {
	return r.rules
}

// Resolve returns the path of the file to launch in gameDir.
func (r *Resolver) Resolve(gameDir string) (string, error) {
	files, err := visibleFiles(gameDir)
	if err != nil {
		return "", fmt.Errorf("reading game directory: %w", err)
	}

	for _, rule := range r.rules {
		if path := rule.Match(gameDir, files); path != "" {
			r.log.Debug("resolved executable", "dir", gameDir, "rule", rule.Name(), "path", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoExecutable, gameDir)
}

// EnsureExecutable grants execute permission on path. It is a no-op on
// Windows and safe to repeat.
func EnsureExecutable(path string) error {
	if err := platform.EnsureExecutable(path); err != nil {
		return fmt.Errorf("marking %s executable: %w", path, err)
	}
	return nil
}

// visibleFiles lists the non-hidden regular files directly under dir.
// os.ReadDir already sorts by name.
func visibleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
