package launch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/platform"
)

// Error kinds.
var (
	ErrSpawn          = errors.New("failed to start game")
	ErrAlreadyRunning = errors.New("a game is already running")
)

// Hook is an OS-integration side effect run around a game's lifetime.
// Failures are logged and otherwise ignored.
type Hook func(h *Handle) error

// Request describes a game to start.
type Request struct {
	Game       string
	Executable string
	// WorkDir defaults to the executable's directory.
	WorkDir string
	// Env is applied after the supervisor's environment overrides.
	Env map[string]string
}

// Supervisor starts games and watches the one that is running.
type Supervisor struct {
	mu      sync.Mutex
	current *Handle

	env          map[string]string
	interpreters map[string]Interpreter
	afterStart   []Hook
	afterExit    []Hook
	lookPath     func(string) (string, error)
	log          *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithEnv sets environment overrides applied to every game.
func WithEnv(env map[string]string) Option {
	return func(s *Supervisor) {
		s.env = env
	}
}

// WithInterpreters replaces the script interpreter table.
func WithInterpreters(m map[string]Interpreter) Option {
	return func(s *Supervisor) {
		s.interpreters = m
	}
}

// WithAfterStart adds a hook run after a game has been spawned.
func WithAfterStart(h Hook) Option {
	return func(s *Supervisor) {
		s.afterStart = append(s.afterStart, h)
	}
}

// WithAfterExit adds a hook run once Poll notices the game has exited.
func WithAfterExit(h Hook) Option {
	return func(s *Supervisor) {
		s.afterExit = append(s.afterExit, h)
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		s.log = l
	}
}

// New creates a Supervisor.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		interpreters: DefaultInterpreters,
		lookPath:     exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// Launch spawns the requested game. It fails with ErrAlreadyRunning while
// another game is live and with ErrSpawn when the process cannot start.
func (s *Supervisor) Launch(req Request) (*Handle, error) {
	s.Poll()

	s.mu.Lock()
	if s.current != nil {
		running := s.current.Game()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, running)
	}

	// The child runs from its own directory, so a relative path would no
	// longer name the executable.
	exe, err := filepath.Abs(req.Executable)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, req.Game, err)
	}
	prog, args, err := commandLine(exe, s.interpreters, s.lookPath)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w %s: no interpreter for %s: %w", ErrSpawn, req.Game, exe, err)
	}

	cmd := exec.Command(prog, args...)
	cmd.Dir = filepath.Dir(exe)
	if req.WorkDir != "" {
		if cmd.Dir, err = filepath.Abs(req.WorkDir); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w %s: %w", ErrSpawn, req.Game, err)
		}
	}
	cmd.Env = mergeEnv(os.Environ(), s.env, req.Env)
	platform.Detach(cmd)

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, req.Game, err)
	}

	h := newHandle(req.Game, exe, cmd)
	s.current = h
	s.mu.Unlock()

	s.log.Info("game started", "game", req.Game, "pid", h.PID(), "exe", exe)
	s.runHooks("after-start", s.afterStart, h)
	return h, nil
}

// Poll clears the live handle if its process has exited, running the
// after-exit hooks. It reports whether a game exited during this call.
func (s *Supervisor) Poll() bool {
	s.mu.Lock()
	h := s.current
	if h == nil || !h.Exited() {
		s.mu.Unlock()
		return false
	}
	s.current = nil
	s.mu.Unlock()

	if err := h.Wait(); err != nil {
		s.log.Info("game exited", "game", h.Game(), "runtime", h.Runtime(), "err", err)
	} else {
		s.log.Info("game exited", "game", h.Game(), "runtime", h.Runtime())
	}
	s.runHooks("after-exit", s.afterExit, h)
	return true
}

// Current returns the live handle, or nil.
func (s *Supervisor) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Running reports whether name is the live game.
func (s *Supervisor) Running(name string) bool {
	h := s.Current()
	return h != nil && h.Game() == name && !h.Exited()
}

func (s *Supervisor) runHooks(stage string, hooks []Hook, h *Handle) {
	for _, hook := range hooks {
		if err := hook(h); err != nil {
			s.log.Warn("launch hook failed", "stage", stage, "game", h.Game(), "err", err)
		}
	}
}
