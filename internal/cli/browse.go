package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/spf13/cobra"
)

// frameInterval is the redraw and housekeeping rate of the browse loop.
const frameInterval = 100 * time.Millisecond

var browseCmd = &cobra.Command{
	Use:   "browse [game]",
	Short: "Browse, install and play games interactively",
	Long: `Open the interactive game list.

  up/k, down/j   move the selection
  enter, space   install the selected game, or play it if installed
  x, backspace   remove the selected game
  r              refresh the catalog
  q, esc         quit

When a game is named, the cursor starts on it once the catalog loads.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("browse needs an interactive terminal")
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "\033[?25l")
	defer fmt.Fprint(out, "\033[?25h\033[H\033[2J")

	keys := make(chan []byte)
	go readKeys(os.Stdin, keys)

	// Quitting abandons in-flight installs; their staging is cleaned up.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		a.lib.Dispatch(ctx, library.Refresh{})
		if len(args) == 1 && !a.lib.Select(args[0]) {
			a.log.Warn("game not in library", "game", args[0])
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := ""
	for {
		frame := renderFrame(a.lib, terminalHeight(fd))
		if frame != last {
			fmt.Fprint(out, frame)
			last = frame
		}

		select {
		case buf, ok := <-keys:
			if !ok {
				return nil
			}
			for _, c := range decodeKeys(buf) {
				// The loop never waits on the network.
				if _, ok := c.(library.Refresh); ok {
					go a.lib.Dispatch(ctx, c)
					continue
				}
				if !a.lib.Dispatch(ctx, c) {
					return nil
				}
			}
		case <-ticker.C:
			a.lib.Tick()
		case <-ctx.Done():
			return nil
		}
	}
}

// readKeys forwards raw reads from r until it fails.
func readKeys(r io.Reader, keys chan<- []byte) {
	defer close(keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			keys <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

// decodeKeys maps a raw terminal read to library commands. Unknown keys are
// dropped.
func decodeKeys(buf []byte) []library.Command {
	var cmds []library.Command
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b == 0x1b {
			// Arrow keys arrive as ESC [ A..D; a lone ESC quits.
			if i+2 < len(buf) && (buf[i+1] == '[' || buf[i+1] == 'O') {
				switch buf[i+2] {
				case 'A':
					cmds = append(cmds, library.MoveSelection{Delta: -1})
				case 'B':
					cmds = append(cmds, library.MoveSelection{Delta: 1})
				}
				i += 2
				continue
			}
			cmds = append(cmds, library.RequestExit{})
			continue
		}

		switch b {
		case 'k', 'K':
			cmds = append(cmds, library.MoveSelection{Delta: -1})
		case 'j', 'J':
			cmds = append(cmds, library.MoveSelection{Delta: 1})
		case '\r', '\n', ' ':
			cmds = append(cmds, library.Activate{})
		case 'x', 'X', 0x7f, 0x08:
			cmds = append(cmds, library.Remove{})
		case 'r', 'R':
			cmds = append(cmds, library.Refresh{})
		case 'q', 'Q', 0x03:
			cmds = append(cmds, library.RequestExit{})
		}
	}
	return cmds
}

func terminalHeight(fd int) int {
	_, h, err := term.GetSize(fd)
	if err != nil || h <= 0 {
		return 24
	}
	return h
}

// frameView is everything a frame shows.
type frameView struct {
	Title    string
	Tier     catalog.Tier
	Offline  bool
	Entries  []library.Entry
	Selected int
	Status   library.Status
	Height   int
}

func renderFrame(lib *library.Library, height int) string {
	return render(frameView{
		Title:    branding.DisplayName(),
		Tier:     lib.Tier(),
		Offline:  lib.Offline(),
		Entries:  lib.Entries(),
		Selected: lib.Selection(),
		Status:   lib.Status(),
		Height:   height,
	})
}

// render draws a full frame. Lines end in CRLF because the terminal is in
// raw mode.
func render(v frameView) string {
	var b strings.Builder
	b.WriteString("\033[H\033[2J")

	header := v.Title
	if v.Offline {
		header += "  [offline]"
	}
	fmt.Fprintf(&b, "%s\r\n%s\r\n", header, strings.Repeat("-", len(header)))

	// Header, rule, blank line, status and help take five rows.
	rows := v.Height - 5
	if rows < 1 {
		rows = 1
	}

	if len(v.Entries) == 0 {
		b.WriteString("  (no games)\r\n")
	}
	start, end := window(v.Selected, len(v.Entries), rows)
	for i := start; i < end; i++ {
		e := v.Entries[i]
		cursor := "  "
		if i == v.Selected {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%-32s %s\r\n", cursor, e.Name, statusLabel(e))
	}

	b.WriteString("\r\n")
	if v.Status.Message != "" {
		b.WriteString(v.Status.Message)
		if v.Status.Err != nil {
			fmt.Fprintf(&b, ": %v", v.Status.Err)
		}
	}
	b.WriteString("\r\n[enter] play/install  [x] remove  [r] refresh  [q] quit")
	return b.String()
}

// window returns the slice bounds of n rows that keep selected visible.
func window(selected, n, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := selected - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}
