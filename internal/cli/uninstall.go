package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <name>",
	Aliases: []string{"remove"},
	Short:   "Remove an installed game",
	Long:    `Delete an installed game's directory from the install root.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.find(cmd.Context(), args[0], false)
	if err != nil {
		return err
	}
	if err := a.lib.Uninstall(e.Name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", e.Name)
	return nil
}
