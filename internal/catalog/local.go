package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource lists zip archives directly under a directory.
type LocalSource struct {
	dir    string
	naming Naming
}

// NewLocalSource returns a source scanning dir. Only WithNaming applies.
func NewLocalSource(dir string, opts ...Option) *LocalSource {
	o := buildOptions(opts)
	return &LocalSource{dir: dir, naming: o.naming}
}

// Dir returns the scanned directory.
func (s *LocalSource) Dir() string { return s.dir }

// Fetch lists the archives. A missing directory is an empty catalog.
func (s *LocalSource) Fetch(ctx context.Context) ([]GamePackage, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []GamePackage{}, nil
	}
	if err != nil {
		return nil, &Error{Source: s.dir, Err: err}
	}

	var pkgs []GamePackage
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Source: s.dir, Err: err}
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !isZip(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		pkgs = append(pkgs, GamePackage{
			Name:    s.naming(name),
			Locator: filepath.Join(s.dir, name),
			Size:    info.Size(),
		})
	}
	return normalize(pkgs), nil
}
