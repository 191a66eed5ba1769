package cli

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/riptidestudio/earthlauncher/internal/library"
)

var printer = message.NewPrinter(language.English)

// humanSize renders a byte count with a binary unit. Unknown sizes print "-".
func humanSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return printer.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return printer.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// statusLabel is the short state shown next to a game.
func statusLabel(e library.Entry) string {
	switch {
	case e.Progress != nil:
		return fmt.Sprintf("%s %d%%", e.Progress.Phase, int(e.Progress.Percent))
	case e.Running:
		return "running"
	case e.Installed:
		return "installed"
	default:
		return "available"
	}
}

// filterEntries keeps installed or not-installed entries. Both flags false
// keeps everything.
func filterEntries(entries []library.Entry, installed, available bool) []library.Entry {
	if installed == available {
		return entries
	}
	out := make([]library.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Installed == installed {
			out = append(out, e)
		}
	}
	return out
}
