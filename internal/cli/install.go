package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/riptidestudio/earthlauncher/internal/progress"
	"github.com/spf13/cobra"
)

// progressInterval is how often the foreground install redraws its line.
const progressInterval = 150 * time.Millisecond

var installYes bool

var installCmd = &cobra.Command{
	Use:   "install <name>",
	Short: "Download and install a game",
	Long: `Download a game archive from the catalog, extract it into the install root and
locate its executable. Press Ctrl-C to cancel; nothing is left behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e, err := a.find(ctx, args[0], true)
	if err != nil {
		return err
	}
	if e.Installed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already installed at %s\n", e.Name, a.lib.Tracker().Path(e.Name))
		return nil
	}

	if !installYes && !confirm(cmd, fmt.Sprintf("? Install %s (%s)? (Y/n) ", e.Name, humanSize(e.Size))) {
		fmt.Fprintln(cmd.OutOrStdout(), "Installation cancelled.")
		return nil
	}

	res, err := installWithProgress(ctx, cmd.OutOrStdout(), a.lib.Installer(), e)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Installation cancelled.")
			return nil
		}
		return fmt.Errorf("installing %s: %w", e.Name, err)
	}

	rel, relErr := filepath.Rel(res.Dir, res.Executable)
	if relErr != nil {
		rel = res.Executable
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\u2713 Installed %s to %s (runs %s)\n", res.Name, res.Dir, rel)
	return nil
}

// installWithProgress runs the install in the foreground and redraws a
// single progress line from the ledger until it finishes.
func installWithProgress(ctx context.Context, w io.Writer, inst *library.Installer, e library.Entry) (*library.Result, error) {
	type outcome struct {
		res *library.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := inst.Install(ctx, e.Package())
		done <- outcome{res, err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case o := <-done:
			if last != "" {
				fmt.Fprint(w, "\r\033[K")
			}
			return o.res, o.err
		case <-ticker.C:
			p, ok := inst.Ledger().Get(e.Name)
			if !ok {
				continue
			}
			line := progressLine(e.Name, p)
			if line != last {
				fmt.Fprint(w, "\r\033[K"+line)
				last = line
			}
		}
	}
}

// progressLine renders "Downloading Foo [=====     ]  50%".
func progressLine(name string, p progress.Entry) string {
	const width = 20
	filled := int(p.Percent / 100 * width)
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("%s %s [%s%s] %3d%%", p.Phase, name,
		strings.Repeat("=", filled), strings.Repeat(" ", width-filled), int(p.Percent))
}

// confirm prompts on stdout and reads a Y/n answer from stdin. An empty
// answer means yes.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "" || answer == "y" || answer == "yes"
	}
	return true
}
