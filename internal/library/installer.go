package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riptidestudio/earthlauncher/internal/archive"
	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/riptidestudio/earthlauncher/internal/progress"
	"github.com/riptidestudio/earthlauncher/internal/resolver"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

const stagingDirName = ".staging"

// Result describes a finished install.
type Result struct {
	Name       string
	JobID      string
	Dir        string
	Executable string
	Err        error
}

// Installer runs the install pipeline: download, extract, resolve, then an
// atomic rename into the install root.
type Installer struct {
	tracker  *Tracker
	ledger   *progress.Ledger
	engine   *transfer.Engine
	resolver *resolver.Resolver
	onDone   []func(Result)
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithLedger shares a progress ledger with the installer.
func WithLedger(l *progress.Ledger) InstallerOption {
	return func(i *Installer) {
		i.ledger = l
	}
}

// WithTransfer sets the transfer engine used for remote locators.
func WithTransfer(e *transfer.Engine) InstallerOption {
	return func(i *Installer) {
		i.engine = e
	}
}

// WithResolver sets the executable resolver.
func WithResolver(r *resolver.Resolver) InstallerOption {
	return func(i *Installer) {
		i.resolver = r
	}
}

// WithOnDone registers a callback for background installs started by Start.
func WithOnDone(fn func(Result)) InstallerOption {
	return func(i *Installer) {
		i.onDone = append(i.onDone, fn)
	}
}

// WithInstallLogger sets the diagnostic logger.
func WithInstallLogger(l *slog.Logger) InstallerOption {
	return func(i *Installer) {
		i.log = l
	}
}

// NewInstaller creates an Installer writing into tracker's install root.
func NewInstaller(tracker *Tracker, opts ...InstallerOption) *Installer {
	i := &Installer{
		tracker: tracker,
		now:     time.Now,
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = logging.OrDiscard(i.log)
	if i.ledger == nil {
		i.ledger = progress.NewLedger()
	}
	if i.engine == nil {
		i.engine = transfer.New(transfer.WithLogger(i.log))
	}
	if i.resolver == nil {
		i.resolver = resolver.New(resolver.WithLogger(i.log))
	}
	return i
}

// Ledger returns the progress ledger.
func (i *Installer) Ledger() *progress.Ledger { return i.ledger }

// StagingDir returns the hidden directory holding in-flight installs.
func (i *Installer) StagingDir() string {
	return filepath.Join(i.tracker.Root(), stagingDirName)
}

// Install runs the pipeline synchronously.
func (i *Installer) Install(ctx context.Context, pkg catalog.GamePackage) (*Result, error) {
	if err := i.claim(pkg.Name); err != nil {
		return nil, err
	}
	ctx, done := i.track(ctx, pkg.Name)
	defer done()

	res := i.run(ctx, pkg)
	return res, res.Err
}

// Start claims pkg and installs it in the background. A second Start for
// the same game fails immediately with progress.ErrInFlight. The outcome is
// delivered to the OnDone callbacks.
func (i *Installer) Start(ctx context.Context, pkg catalog.GamePackage) error {
	if err := i.claim(pkg.Name); err != nil {
		return err
	}
	ctx, done := i.track(ctx, pkg.Name)

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		res := i.run(ctx, pkg)
		done()
		for _, fn := range i.onDone {
			fn(*res)
		}
	}()
	return nil
}

// Cancel aborts an in-flight install of name. It reports whether one was
// running.
func (i *Installer) Cancel(name string) bool {
	i.mu.Lock()
	cancel, ok := i.cancels[name]
	i.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Wait blocks until every background install has finished.
func (i *Installer) Wait() {
	i.wg.Wait()
}

// claim validates name and takes the double-install guard.
func (i *Installer) claim(name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := i.ledger.Begin(name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if i.tracker.IsInstalled(name) {
		i.ledger.Clear(name)
		return fmt.Errorf("%w: %s", ErrAlreadyInstalled, name)
	}
	return nil
}

func (i *Installer) track(ctx context.Context, name string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	i.mu.Lock()
	i.cancels[name] = cancel
	i.mu.Unlock()
	return ctx, func() {
		i.mu.Lock()
		delete(i.cancels, name)
		i.mu.Unlock()
		cancel()
	}
}

// run executes the pipeline for a claimed game. Every exit path clears the
// ledger entry and removes the job's staging directory.
func (i *Installer) run(ctx context.Context, pkg catalog.GamePackage) *Result {
	jobID := uuid.NewString()
	res := &Result{Name: pkg.Name, JobID: jobID}
	log := i.log.With("game", pkg.Name, "job", jobID)

	defer i.ledger.Clear(pkg.Name)

	staging := i.StagingDir()
	job := filepath.Join(staging, jobID)
	if err := os.MkdirAll(job, 0755); err != nil {
		res.Err = fmt.Errorf("creating staging directory: %w", err)
		return res
	}
	defer func() {
		if err := os.RemoveAll(job); err != nil {
			log.Warn("removing staging directory", "err", err)
		}
		// Fails while other installs are staged, which is fine.
		_ = os.Remove(staging)
	}()

	archivePath, keep, err := i.fetch(ctx, pkg, job, log)
	if err != nil {
		res.Err = fmt.Errorf("downloading %s: %w", pkg.Name, err)
		log.Warn("install failed", "step", "download", "err", err)
		return res
	}

	i.ledger.Set(pkg.Name, progress.Extracting, 0)
	extracted := filepath.Join(job, "game")
	opts := []archive.Option{archive.WithLogger(log)}
	if keep {
		opts = append(opts, archive.KeepArchive())
	}
	if err := archive.Extract(ctx, archivePath, extracted, i.ledger.Reporter(pkg.Name, progress.Extracting), opts...); err != nil {
		res.Err = fmt.Errorf("extracting %s: %w", pkg.Name, err)
		log.Warn("install failed", "step", "extract", "err", err)
		return res
	}

	exe, err := i.resolver.Resolve(extracted)
	if err != nil {
		res.Err = fmt.Errorf("installing %s: %w", pkg.Name, err)
		log.Warn("install failed", "step", "resolve", "err", err)
		return res
	}
	if err := resolver.EnsureExecutable(exe); err != nil {
		res.Err = err
		return res
	}
	rel, err := filepath.Rel(extracted, exe)
	if err != nil {
		res.Err = fmt.Errorf("locating executable: %w", err)
		return res
	}

	if err := i.writeRecord(extracted, pkg, jobID, rel); err != nil {
		res.Err = err
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	dest := i.tracker.Path(pkg.Name)
	if err := os.Rename(extracted, dest); err != nil {
		res.Err = fmt.Errorf("moving %s into place: %w", pkg.Name, err)
		log.Warn("install failed", "step", "rename", "err", err)
		return res
	}

	res.Dir = dest
	res.Executable = filepath.Join(dest, rel)
	log.Info("game installed", "dir", dest, "executable", rel)
	return res
}

// fetch makes the archive available locally. Remote archives are downloaded
// into the job directory; local archives are used in place and kept.
func (i *Installer) fetch(ctx context.Context, pkg catalog.GamePackage, job string, log *slog.Logger) (string, bool, error) {
	if !transfer.IsRemote(pkg.Locator) {
		path := transfer.LocalPath(pkg.Locator)
		if _, err := os.Stat(path); err != nil {
			return "", false, &transfer.Error{Kind: transfer.ErrIO, Locator: pkg.Locator, Err: err}
		}
		log.Debug("using local archive", "path", path)
		return path, true, nil
	}

	dest := filepath.Join(job, filepath.Base(job)+".zip")
	log.Debug("downloading archive", "locator", pkg.Locator)
	if err := i.engine.Download(ctx, pkg.Locator, dest, i.ledger.Reporter(pkg.Name, progress.Downloading)); err != nil {
		return "", false, err
	}
	return dest, false, nil
}

func (i *Installer) writeRecord(dir string, pkg catalog.GamePackage, jobID, exe string) error {
	rec := &manifest.Record{
		Name:        pkg.Name,
		Locator:     pkg.Locator,
		Size:        pkg.Size,
		Executable:  filepath.ToSlash(exe),
		InstalledAt: i.now().UTC(),
		JobID:       jobID,
	}
	m, err := manifest.Load(dir)
	switch {
	case err == nil:
		rec.Version = m.Version
	case !errors.Is(err, fs.ErrNotExist):
		i.log.Warn("ignoring unreadable game manifest", "game", pkg.Name, "err", err)
	}
	return manifest.WriteRecord(dir, rec)
}
