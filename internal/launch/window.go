package launch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// WindowManager hides the launcher window while a game runs and restores it
// afterwards using wmctrl.
type WindowManager struct {
	// Title is the launcher's window title.
	Title string
	run   func(ctx context.Context, name string, args ...string) error
}

// NewWindowManager returns a WindowManager for the launcher window titled
// title. It returns nil when wmctrl is not installed.
func NewWindowManager(title string) *WindowManager {
	if _, err := exec.LookPath("wmctrl"); err != nil {
		return nil
	}
	return &WindowManager{Title: title, run: runQuiet}
}

// AfterStart focuses the game and hides the launcher.
func (w *WindowManager) AfterStart(h *Handle) error {
	if err := w.wmctrl("-a", h.Game()); err != nil {
		return err
	}
	return w.wmctrl("-r", w.Title, "-b", "add,hidden")
}

// AfterExit brings the launcher back.
func (w *WindowManager) AfterExit(*Handle) error {
	if err := w.wmctrl("-r", w.Title, "-b", "remove,hidden"); err != nil {
		return err
	}
	return w.wmctrl("-a", w.Title)
}

func (w *WindowManager) wmctrl(args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.run(ctx, "wmctrl", args...); err != nil {
		return fmt.Errorf("wmctrl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func runQuiet(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
