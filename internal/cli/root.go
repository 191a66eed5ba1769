package cli

import (
	"fmt"
	"os"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/riptidestudio/earthlauncher/internal/updater"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` browses the game library published on GitHub, installs games
into a local directory, and launches them one at a time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Skip banners for commands that manage their own state.
		switch cmd.Name() {
		case "update", "self-update", "version", "browse":
			return
		}

		// Non-blocking banner from cached version check.
		dir := resolveConfigDir()
		var opts []updater.Option
		if s, err := config.Load(dir); err == nil {
			opts = updaterOptions(s)
		}
		updater.New(buildVersion, opts...).CheckAndPrintBanner(os.Stderr, dir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/"+branding.HomeDir()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func resolveConfigDir() string {
	if configDir != "" {
		return configDir
	}
	return config.Dir()
}

// updaterOptions points the updater at the configured token and mirror.
func updaterOptions(s *config.Settings) []updater.Option {
	opts := []updater.Option{updater.WithToken(s.Repo.Token)}
	if s.UpdateMirror != "" {
		opts = append(opts, updater.WithMirror(s.UpdateMirror))
	}
	return opts
}
