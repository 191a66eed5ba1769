package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/spf13/cobra"
)

var catalogJSON bool

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the raw game catalog and where it came from",
	Long: `Fetch the catalog the way the launcher does at startup and print every package.

The remote GitHub listing is tried first. When it is unreachable the launcher
falls back to the zip archives found in local_dir, and reports the tier that
answered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		r := a.lib.Refresh(cmd.Context())

		if catalogJSON {
			data, err := json.MarshalIndent(catalogReport{
				Tier:     r.Tier,
				Offline:  r.Offline(),
				Packages: r.Packages,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Source:  %s\n", describeTier(a.settings, r.Tier))
		if r.RemoteErr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Remote:  %v\n", r.RemoteErr)
		}
		if r.LocalErr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Local:   %v\n", r.LocalErr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Games:   %d\n\n", len(r.Packages))
		if len(r.Packages) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tLOCATOR")
		for _, p := range r.Packages {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, humanSize(p.Size), p.Locator)
		}
		return w.Flush()
	},
}

type catalogReport struct {
	Tier     catalog.Tier          `json:"tier"`
	Offline  bool                  `json:"offline"`
	Packages []catalog.GamePackage `json:"packages"`
}

func describeTier(s *config.Settings, t catalog.Tier) string {
	switch t {
	case catalog.TierRemote:
		if s.Repo.ListingURL != "" {
			return "remote (" + s.Repo.ListingURL + ")"
		}
		return fmt.Sprintf("remote (%s/%s)", s.Repo.Owner, s.Repo.Name)
	case catalog.TierLocal:
		return "local (" + s.LocalDir + ")"
	default:
		return "none"
	}
}
