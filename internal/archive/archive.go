package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/riptidestudio/earthlauncher/internal/logging"
)

// Error kinds.
var (
	ErrCorrupt = errors.New("corrupt archive")
	ErrIO      = errors.New("extraction I/O failure")
)

// Error describes a failed extraction.
type Error struct {
	Kind    error
	Archive string
	Entry   string
	Err     error
}

func (e *Error) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%v: %s (%s): %v", e.Kind, e.Archive, e.Entry, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Archive, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Option configures a single extraction.
type Option func(*options)

type options struct {
	keepArchive bool
	log         *slog.Logger
}

// KeepArchive leaves the archive file in place after a successful extraction.
func KeepArchive() Option {
	return func(o *options) { o.keepArchive = true }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Extract writes every entry of the zip at archivePath under destDir and
// calls onProgress with entries_done/total*100 after each entry. On success
// the archive is deleted unless KeepArchive is given. A failed extraction is
// not rolled back; destDir may be left incomplete.
func Extract(ctx context.Context, archivePath, destDir string, onProgress func(float64), opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrDiscard(o.log)

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return &Error{Kind: ErrCorrupt, Archive: archivePath, Err: err}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		r.Close()
		return &Error{Kind: ErrIO, Archive: archivePath, Err: err}
	}

	total := len(r.File)
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			r.Close()
			return err
		}
		if err := extractEntry(f, destDir, log); err != nil {
			r.Close()
			var ae *Error
			if errors.As(err, &ae) {
				ae.Archive = archivePath
			}
			return err
		}
		if onProgress != nil {
			onProgress(float64(i+1) / float64(total) * 100)
		}
	}
	if total == 0 && onProgress != nil {
		onProgress(100)
	}

	// The reader must be closed before the archive can be removed on Windows.
	if err := r.Close(); err != nil {
		return &Error{Kind: ErrCorrupt, Archive: archivePath, Err: err}
	}

	log.Debug("extracted archive", "archive", archivePath, "dest", destDir, "entries", total)

	if !o.keepArchive {
		if err := os.Remove(archivePath); err != nil {
			return &Error{Kind: ErrIO, Archive: archivePath, Err: fmt.Errorf("removing archive: %w", err)}
		}
	}
	return nil
}

// EntryPath returns the destination of a zip entry name under destDir, or
// an error if the name would escape destDir.
func EntryPath(destDir, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal entry path %q", name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes destination", name)
	}
	return target, nil
}

func extractEntry(f *zip.File, destDir string, log *slog.Logger) error {
	target, err := EntryPath(destDir, f.Name)
	if err != nil {
		return &Error{Kind: ErrCorrupt, Entry: f.Name, Err: err}
	}

	mode := f.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		if err := os.MkdirAll(target, 0755); err != nil {
			return &Error{Kind: ErrIO, Entry: f.Name, Err: err}
		}
		return nil
	case mode&os.ModeSymlink != 0:
		log.Warn("skipping symlink entry", "entry", f.Name)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &Error{Kind: ErrIO, Entry: f.Name, Err: err}
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}

	rc, err := f.Open()
	if err != nil {
		return &Error{Kind: ErrCorrupt, Entry: f.Name, Err: err}
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return &Error{Kind: ErrIO, Entry: f.Name, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(writerOnly{out}, rc); err != nil {
		var we writeError
		if errors.As(err, &we) {
			return &Error{Kind: ErrIO, Entry: f.Name, Err: we.err}
		}
		return &Error{Kind: ErrCorrupt, Entry: f.Name, Err: err}
	}
	if err := out.Close(); err != nil {
		return &Error{Kind: ErrIO, Entry: f.Name, Err: err}
	}
	return nil
}

// writerOnly tags write failures so they can be told apart from read
// failures of the compressed stream.
type writerOnly struct{ w io.Writer }

type writeError struct{ err error }

func (e writeError) Error() string { return e.err.Error() }

func (w writerOnly) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, writeError{err}
	}
	return n, nil
}
