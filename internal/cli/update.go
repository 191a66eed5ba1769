package cli

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/updater"
	"github.com/spf13/cobra"
)

var (
	updateCheck   bool
	updateForce   bool
	updateVersion string
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Force update even if already on latest version")
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "Install a specific version (e.g., 1.2.0)")

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"self-update"},
	Short:   "Update " + branding.CLIName() + " to the latest version",
	Long: `Downloads and installs the latest version of ` + branding.CLIName() + ` from GitHub releases
or a configured mirror (update.mirror).

  ` + branding.CLIName() + ` update                  # update to latest
  ` + branding.CLIName() + ` update --check          # check only
  ` + branding.CLIName() + ` update --version 1.2.0  # install specific version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveConfigDir()
		s, err := config.Load(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log, closeLog, err := logging.New(logging.Options{Level: s.Log.Level, Format: s.Log.Format, File: s.Log.File})
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		defer closeLog()

		u := updater.New(buildVersion, append(updaterOptions(s), updater.WithLogger(log))...)

		ctx := cmd.Context()
		var release *updater.Release
		if updateVersion != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Checking for version %s...\n", updateVersion)
			release, err = u.CheckSpecificVersion(ctx, updateVersion)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Checking for updates...")
			release, err = u.CheckLatestVersion(ctx)
		}
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}

		available, err := updater.IsUpdateAvailable(buildVersion, release.Version)
		if err != nil {
			return fmt.Errorf("comparing versions: %w", err)
		}

		out := cmd.OutOrStdout()
		if updateCheck {
			if available {
				fmt.Fprintf(out, "Update available: %s -> %s\n", buildVersion, release.Version)
			} else {
				fmt.Fprintf(out, "You are on the latest version (%s)\n", buildVersion)
			}
			return nil
		}

		if !available && !updateForce && updateVersion == "" {
			fmt.Fprintf(out, "You are on the latest version (%s)\n", buildVersion)
			return nil
		}

		currentBinary, err := os.Executable()
		if err != nil {
			return fmt.Errorf("finding current binary: %w", err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Downloading %s %s for %s/%s...\n", branding.CLIName(), release.Version, runtime.GOOS, runtime.GOARCH)
		last := -1
		err = u.Apply(ctx, release, currentBinary, func(p float64) {
			if pct := int(p) / 10 * 10; pct != last {
				last = pct
				fmt.Fprintf(cmd.ErrOrStderr(), "\r  %3d%%", pct)
			}
		})
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cache := &updater.VersionCache{
			LatestVersion:   release.Version,
			CurrentVersion:  release.Version,
			CheckedAt:       time.Now(),
			UpdateAvailable: false,
			Source:          u.Source(),
		}
		if err := updater.SaveCache(dir, cache); err != nil {
			log.Debug("saving version cache", "err", err)
		}

		fmt.Fprintf(out, "Successfully updated to %s\n", release.Version)
		return nil
	},
}
