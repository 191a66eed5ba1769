// Package branding provides compile-time identity values for the launcher.
//
// Forks edit branding.yaml in this package; Go's //go:embed bakes it into
// the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
	LibraryOwner string `yaml:"library_owner"`
	LibraryRepo  string `yaml:"library_repo"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "earthlauncher",
			DisplayName:  "Earth Launcher",
			Description:  "Game library manager for handheld devices",
			HomeDir:      ".earthlauncher",
			EnvPrefix:    "EARTHLAUNCHER",
			GoModule:     "github.com/riptidestudio/earthlauncher",
			GitHubRepo:   "RiptideStudio/Earth-Launcher",
			LibraryOwner: "RiptideStudio",
			LibraryRepo:  "Earth-Library",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "earthlauncher").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name. It is also the
// launcher window title used by the window-management hooks.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".earthlauncher").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "EARTHLAUNCHER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" that publishes launcher releases.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// LibraryOwner returns the default owner of the game library repository.
func LibraryOwner() string { load(); return defaults.LibraryOwner }

// LibraryRepo returns the default name of the game library repository.
func LibraryRepo() string { load(); return defaults.LibraryRepo }

// UserAgent returns the User-Agent sent with every HTTP request.
func UserAgent() string { load(); return defaults.CLIName }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "EARTHLAUNCHER_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
