package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/riptidestudio/earthlauncher/internal/progress"
	"github.com/riptidestudio/earthlauncher/internal/resolver"
)

// Catalog is the source of installable games.
type Catalog interface {
	FetchReport(ctx context.Context) *catalog.Report
}

// Entry is one row of the merged catalog and installed view.
type Entry struct {
	Name      string          `json:"name"`
	Locator   string          `json:"locator,omitempty"`
	Size      int64           `json:"size"`
	Installed bool            `json:"installed"`
	Running   bool            `json:"running"`
	Progress  *progress.Entry `json:"progress,omitempty"`
}

// Package returns the catalog form of the entry.
func (e Entry) Package() catalog.GamePackage {
	return catalog.GamePackage{Name: e.Name, Locator: e.Locator, Size: e.Size}
}

// Status is the one-line message shown to the user.
type Status struct {
	Game    string
	Message string
	Err     error
	At      time.Time
}

// Library is the launcher's controller. It is safe for concurrent use; its
// mutex is never held across I/O.
type Library struct {
	source     Catalog
	tracker    *Tracker
	installer  *Installer
	supervisor *launch.Supervisor
	resolver   *resolver.Resolver
	notify     func(Status)
	log        *slog.Logger

	mu       sync.Mutex
	packages []catalog.GamePackage
	tier     catalog.Tier
	offline  bool
	selected int
	status   Status
}

// Option configures a Library.
type Option func(*Library)

// WithNotify registers a callback receiving every status change.
func WithNotify(fn func(Status)) Option {
	return func(l *Library) {
		l.notify = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Library) {
		l.log = lg
	}
}

// New creates a Library. The installer's background results are routed to
// the status line.
func New(source Catalog, installer *Installer, supervisor *launch.Supervisor, opts ...Option) *Library {
	l := &Library{
		source:     source,
		tracker:    installer.tracker,
		installer:  installer,
		resolver:   installer.resolver,
		supervisor: supervisor,
		packages:   []catalog.GamePackage{},
		tier:       catalog.TierNone,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.OrDiscard(l.log)
	installer.onDone = append(installer.onDone, l.installDone)
	return l
}

// Tracker returns the install state tracker.
func (l *Library) Tracker() *Tracker { return l.tracker }

// Installer returns the installer.
func (l *Library) Installer() *Installer { return l.installer }

// Supervisor returns the launch supervisor.
func (l *Library) Supervisor() *launch.Supervisor { return l.supervisor }

// Refresh replaces the catalog wholesale.
func (l *Library) Refresh(ctx context.Context) *catalog.Report {
	r := l.source.FetchReport(ctx)

	l.mu.Lock()
	l.packages = r.Packages
	l.tier = r.Tier
	l.offline = r.Offline()
	l.mu.Unlock()

	l.log.Debug("catalog refreshed", "tier", r.Tier, "games", len(r.Packages))
	return r
}

// Offline reports whether the last refresh could not reach the remote tier.
func (l *Library) Offline() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offline
}

// Tier reports which catalog tier answered the last refresh.
func (l *Library) Tier() catalog.Tier {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tier
}

// Entries returns the merged view of catalog and installed games, sorted by
// name. Installed games absent from the catalog are included.
func (l *Library) Entries() []Entry {
	l.mu.Lock()
	pkgs := append([]catalog.GamePackage(nil), l.packages...)
	l.mu.Unlock()

	installed, err := l.tracker.ListInstalled()
	if err != nil {
		l.log.Warn("listing installed games", "err", err)
		installed = map[string]struct{}{}
	}
	inflight := l.installer.Ledger().Snapshot()
	running := ""
	if h := l.supervisor.Current(); h != nil && !h.Exited() {
		running = h.Game()
	}

	entries := make([]Entry, 0, len(pkgs)+len(installed))
	seen := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		seen[p.Name] = true
		entries = append(entries, Entry{Name: p.Name, Locator: p.Locator, Size: p.Size})
	}
	for name := range installed {
		if !seen[name] {
			entries = append(entries, Entry{Name: name})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for i := range entries {
		e := &entries[i]
		_, e.Installed = installed[e.Name]
		e.Running = e.Name == running
		if p, ok := inflight[e.Name]; ok {
			e.Progress = &p
		}
	}
	return entries
}

// Selection returns the cursor position, clamped to the current entries.
func (l *Library) Selection() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Selected returns the entry under the cursor.
func (l *Library) Selected() (Entry, bool) {
	entries := l.Entries()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) == 0 {
		return Entry{}, false
	}
	l.selected = clamp(l.selected, len(entries))
	return entries[l.selected], true
}

// Select moves the cursor to the named game.
func (l *Library) Select(name string) bool {
	for i, e := range l.Entries() {
		if e.Name == name {
			l.mu.Lock()
			l.selected = i
			l.mu.Unlock()
			return true
		}
	}
	return false
}

// Status returns the current status line.
func (l *Library) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Dispatch applies cmd and reports whether the front end should keep
// running. Failures never escape; they are reported on the status line.
func (l *Library) Dispatch(ctx context.Context, cmd Command) bool {
	switch c := cmd.(type) {
	case MoveSelection:
		n := len(l.Entries())
		l.mu.Lock()
		l.selected = clamp(l.selected+c.Delta, n)
		l.mu.Unlock()
	case Activate:
		if e, ok := l.Selected(); ok {
			l.activate(ctx, e)
		} else {
			l.setStatus("", "No games found", nil)
		}
	case Remove:
		if e, ok := l.Selected(); ok {
			l.remove(e)
		}
	case Refresh:
		r := l.Refresh(ctx)
		switch {
		case r.Offline() && len(r.Packages) == 0:
			l.setStatus("", "Offline: no games found", r.RemoteErr)
		case r.Offline():
			l.setStatus("", fmt.Sprintf("Offline: showing %d local games", len(r.Packages)), r.RemoteErr)
		case len(r.Packages) == 0:
			l.setStatus("", "No games found", nil)
		default:
			l.setStatus("", fmt.Sprintf("Found %d games", len(r.Packages)), nil)
		}
	case RequestExit:
		return false
	default:
		l.log.Warn("unknown command", "command", fmt.Sprintf("%T", cmd))
	}
	return true
}

// Tick performs the per-frame housekeeping: it notices when the running
// game has exited. It reports whether a game exited.
func (l *Library) Tick() bool {
	h := l.supervisor.Current()
	if !l.supervisor.Poll() {
		return false
	}
	if h != nil {
		l.setStatus(h.Game(), fmt.Sprintf("%s exited", h.Game()), nil)
	}
	return true
}

// Launch starts an installed game.
func (l *Library) Launch(name string) (*launch.Handle, error) {
	if !l.tracker.IsInstalled(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	dir := l.tracker.Path(name)
	exe, err := l.resolver.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := resolver.EnsureExecutable(exe); err != nil {
		return nil, err
	}

	req := launch.Request{Game: name, Executable: exe}
	if m, err := manifest.Load(dir); err == nil {
		req.Env = m.Env
	} else if !errors.Is(err, fs.ErrNotExist) {
		l.log.Warn("ignoring unreadable game manifest", "game", name, "err", err)
	}
	return l.supervisor.Launch(req)
}

// Uninstall removes an installed game that is neither installing nor
// running.
func (l *Library) Uninstall(name string) error {
	if _, busy := l.installer.Ledger().Get(name); busy {
		return fmt.Errorf("%s: %w", name, progress.ErrInFlight)
	}
	if l.supervisor.Running(name) {
		return fmt.Errorf("%w: %s", launch.ErrAlreadyRunning, name)
	}
	return l.tracker.Remove(name)
}

func (l *Library) activate(ctx context.Context, e Entry) {
	if e.Progress != nil {
		l.setStatus(e.Name, fmt.Sprintf("%s is already installing", e.Name), progress.ErrInFlight)
		return
	}
	if e.Installed {
		if _, err := l.Launch(e.Name); err != nil {
			l.setStatus(e.Name, fmt.Sprintf("Failed to launch %s", e.Name), err)
			return
		}
		l.setStatus(e.Name, fmt.Sprintf("Playing %s", e.Name), nil)
		return
	}

	if err := l.installer.Start(ctx, e.Package()); err != nil {
		if errors.Is(err, progress.ErrInFlight) {
			l.setStatus(e.Name, fmt.Sprintf("%s is already installing", e.Name), err)
			return
		}
		l.setStatus(e.Name, fmt.Sprintf("Failed to install %s", e.Name), err)
		return
	}
	l.setStatus(e.Name, fmt.Sprintf("Installing %s", e.Name), nil)
}

func (l *Library) remove(e Entry) {
	// The install's own completion reports "Cancelled".
	if e.Progress != nil {
		l.installer.Cancel(e.Name)
		return
	}
	if !e.Installed {
		l.setStatus(e.Name, fmt.Sprintf("%s is not installed", e.Name), nil)
		return
	}
	if err := l.Uninstall(e.Name); err != nil {
		l.setStatus(e.Name, fmt.Sprintf("Cannot remove %s", e.Name), err)
		return
	}
	l.setStatus(e.Name, fmt.Sprintf("Removed %s", e.Name), nil)
}

func (l *Library) installDone(r Result) {
	if errors.Is(r.Err, context.Canceled) {
		l.setStatus(r.Name, fmt.Sprintf("Cancelled %s", r.Name), nil)
		return
	}
	if r.Err != nil {
		l.setStatus(r.Name, fmt.Sprintf("Failed to install %s", r.Name), r.Err)
		return
	}
	l.setStatus(r.Name, fmt.Sprintf("Installed %s", r.Name), nil)
}

func (l *Library) setStatus(game, msg string, err error) {
	st := Status{Game: game, Message: msg, Err: err, At: time.Now()}
	l.mu.Lock()
	l.status = st
	notify := l.notify
	l.mu.Unlock()

	if err != nil {
		l.log.Info(msg, "game", game, "err", err)
	}
	if notify != nil {
		notify(st)
	}
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
