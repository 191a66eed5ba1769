// Package progress tracks in-flight installations. The Ledger is the only
// structure written by install workers and read by the presentation loop, so
// every access goes through a single mutex held just for the map operation.
package progress

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is the current step of an installation.
type Phase int

const (
	// Downloading means the archive is being transferred.
	Downloading Phase = iota
	// Extracting means archive entries are being written to disk.
	Extracting
)

func (p Phase) String() string {
	switch p {
	case Downloading:
		return "Downloading"
	case Extracting:
		return "Extracting"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText lets phases render by name in JSON output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Entry is a consistent (phase, percent) pair.
type Entry struct {
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"percent"`
}

// ErrInFlight is returned by Begin when the game already has an installation
// in progress.
var ErrInFlight = errors.New("installation already in progress")

// Ledger maps game names to in-flight installation progress. The zero value
// is not usable; call NewLedger.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Entry)}
}

// Begin claims name for a new installation, starting at Downloading 0%.
// It fails with ErrInFlight if name is already claimed.
func (l *Ledger) Begin(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrInFlight)
	}
	l.entries[name] = Entry{Phase: Downloading}
	return nil
}

// Set records progress for name. Percent is clamped to [0, 100].
func (l *Ledger) Set(name string, phase Phase, percent float64) {
	l.mu.Lock()
	l.entries[name] = Entry{Phase: phase, Percent: clamp(percent)}
	l.mu.Unlock()
}

// Clear removes name; absence means the game is idle.
func (l *Ledger) Clear(name string) {
	l.mu.Lock()
	delete(l.entries, name)
	l.mu.Unlock()
}

// Get returns the progress for name and whether an installation is in flight.
func (l *Ledger) Get(name string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	return e, ok
}

// Snapshot returns a copy of every in-flight entry.
func (l *Ledger) Snapshot() map[string]Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Reporter returns a callback that records percent for name under phase.
func (l *Ledger) Reporter(name string, phase Phase) func(float64) {
	return func(percent float64) {
		l.Set(name, phase, percent)
	}
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
