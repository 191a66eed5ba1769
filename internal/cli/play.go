package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/spf13/cobra"
)

// statsInterval is how often --wait samples the running game.
const statsInterval = 2 * time.Second

var playWait bool

var playCmd = &cobra.Command{
	Use:     "play <name>",
	Aliases: []string{"launch"},
	Short:   "Launch an installed game",
	Long: `Find the game's executable and start it detached from the launcher.

With --wait the command stays attached, prints resource usage while the game
runs and reports how long it ran. Ctrl-C stops the game.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVarP(&playWait, "wait", "w", false, "Wait for the game to exit and show resource usage")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	a, err := newApp(playWait)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.find(cmd.Context(), args[0], false)
	if err != nil {
		return err
	}

	h, err := a.lib.Launch(e.Name)
	if err != nil {
		return fmt.Errorf("launching %s: %w", e.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (pid %d, %s)\n", e.Name, h.PID(), h.Executable())

	if !playWait {
		return nil
	}
	return waitForGame(cmd, a, h)
}

func waitForGame(cmd *cobra.Command, a *app, h *launch.Handle) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.Done():
			a.lib.Tick()
			if err := h.Wait(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s exited after %s: %v\n", h.Game(), h.Runtime().Round(time.Second), err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s exited after %s\n", h.Game(), h.Runtime().Round(time.Second))
			return nil
		case <-interrupt:
			fmt.Fprintf(cmd.OutOrStdout(), "Stopping %s...\n", h.Game())
			if err := h.Stop(); err != nil {
				return fmt.Errorf("stopping %s: %w", h.Game(), err)
			}
		case <-ticker.C:
			st, err := h.Stats()
			if err != nil {
				a.log.Debug("sampling game", "game", h.Game(), "err", err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  cpu %5.1f%%  mem %s  threads %d\n",
				st.Uptime.Round(time.Second), st.CPUPercent, humanSize(int64(st.RSS)), st.Threads)
		}
	}
}
