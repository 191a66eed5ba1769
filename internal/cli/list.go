package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	listInstalled bool
	listAvailable bool
	listJSON      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List games in the library",
	Long: `List the merged view of the remote catalog and the games installed locally.
Installed games that are no longer published are still listed.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "Only show installed games (no network access)")
	listCmd.Flags().BoolVar(&listAvailable, "available", false, "Only show games that are not installed")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a game for JSON display.
type listEntry struct {
	library.Entry
	Path   string           `json:"path,omitempty"`
	Record *manifest.Record `json:"record,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if !listInstalled {
		r := a.lib.Refresh(cmd.Context())
		if r.Offline() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Offline: showing local games only (%v)\n", r.RemoteErr)
		}
	}

	entries := filterEntries(a.lib.Entries(), listInstalled, listAvailable)
	if len(entries) == 0 {
		if listJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "[]")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No games found.")
		return nil
	}

	if listJSON {
		return printListJSON(cmd, a.lib.Tracker(), entries)
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []library.Entry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, humanSize(e.Size), statusLabel(e))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, tracker *library.Tracker, entries []library.Entry) error {
	out := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		le := listEntry{Entry: e}
		if e.Installed {
			le.Path = tracker.Path(e.Name)
			if rec, err := manifest.ReadRecord(le.Path); err == nil {
				le.Record = rec
			}
		}
		out = append(out, le)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
