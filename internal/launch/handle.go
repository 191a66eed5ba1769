package launch

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/riptidestudio/earthlauncher/internal/platform"
)

// ErrNotRunning is returned by Stats once the game has exited.
var ErrNotRunning = errors.New("game is not running")

// Handle is a running (or recently exited) game process.
type Handle struct {
	game    string
	exe     string
	cmd     *exec.Cmd
	started time.Time
	done    chan struct{}
	err     error
	ended   time.Time
}

// Stats is a resource snapshot of a running game.
type Stats struct {
	PID        int
	RSS        uint64
	CPUPercent float64
	Threads    int32
	Uptime     time.Duration
}

func newHandle(game, exe string, cmd *exec.Cmd) *Handle {
	h := &Handle{
		game:    game,
		exe:     exe,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		h.err = cmd.Wait()
		h.ended = time.Now()
		close(h.done)
	}()
	return h
}

// Game returns the name of the game this handle runs.
func (h *Handle) Game() string { return h.game }

// Executable returns the resolved file that was launched.
func (h *Handle) Executable() string { return h.exe }

// PID returns the operating-system process id.
func (h *Handle) PID() int { return h.cmd.Process.Pid }

// Started returns the spawn time.
func (h *Handle) Started() time.Time { return h.started }

// Exited reports whether the process has terminated. It never blocks.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done is closed when the process exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the process exits and returns its exit error, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Runtime returns how long the game ran, or has been running so far.
func (h *Handle) Runtime() time.Duration {
	if h.Exited() {
		return h.ended.Sub(h.started)
	}
	return time.Since(h.started)
}

// Stop kills the game and its process group.
func (h *Handle) Stop() error {
	if h.Exited() {
		return nil
	}
	if err := platform.Kill(h.cmd); err != nil {
		return fmt.Errorf("stopping %s: %w", h.game, err)
	}
	return nil
}

// Stats samples memory and CPU usage of the game process.
func (h *Handle) Stats() (*Stats, error) {
	if h.Exited() {
		return nil, ErrNotRunning
	}
	p, err := process.NewProcess(int32(h.PID()))
	if err != nil {
		return nil, fmt.Errorf("inspecting pid %d: %w", h.PID(), err)
	}

	st := &Stats{PID: h.PID(), Uptime: time.Since(h.started)}
	if mi, err := p.MemoryInfo(); err == nil {
		st.RSS = mi.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if n, err := p.NumThreads(); err == nil {
		st.Threads = n
	}
	return st, nil
}
