package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Naming policies for catalog entry names.
const (
	NamingTitle = "title"
	NamingStem  = "stem"
)

// Settings is the read-only configuration value built once at startup.
type Settings struct {
	Dir             string
	Repo            Repo
	InstallRoot     string
	LocalDir        string
	Naming          string
	HTTPTimeout     time.Duration
	TransferRetries int
	LaunchEnv       map[string]string
	ManageWindow    bool
	Display         Display
	InputPins       map[string]int
	Log             Log
	UpdateMirror    string
}

// Repo holds the coordinates of the remote game library.
type Repo struct {
	Owner      string
	Name       string
	Path       string
	APIURL     string
	ListingURL string
	Token      string
}

// Display is the presentation geometry. The core never reads it.
type Display struct {
	Width  int
	Height int
}

// Log configures the diagnostic logger.
type Log struct {
	Level  string
	Format string
	File   string
}

// Dir returns the path to the launcher config directory (~/.earthlauncher/).
// The EARTHLAUNCHER_HOME environment variable overrides it.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load reads the config file in dir (if present) plus environment overrides
// and returns the resulting Settings.
func Load(dir string) (*Settings, error) {
	v, err := open(dir)
	if err != nil {
		return nil, err
	}
	return settingsFrom(v, dir)
}

// Get returns a single config value by key, after defaults and environment
// overrides are applied. Returns an empty string if the key is unknown.
func Get(dir, key string) (string, error) {
	v, err := open(dir)
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes a config key-value pair and saves the config file.
func Set(dir, key, value string) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}

	v, err := open(dir)
	if err != nil {
		return err
	}
	v.Set(key, value)

	configFile := FilePath(dir)
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func open(dir string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, dir)

	v.SetConfigFile(FilePath(dir))
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(FilePath(dir)); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", FilePath(dir), err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("repo.owner", branding.LibraryOwner())
	v.SetDefault("repo.name", branding.LibraryRepo())
	v.SetDefault("repo.path", "")
	v.SetDefault("repo.api_url", "https://api.github.com")
	v.SetDefault("repo.listing_url", "")
	v.SetDefault("repo.token", "")
	v.SetDefault("install_root", filepath.Join(dir, "games"))
	v.SetDefault("local_dir", "")
	v.SetDefault("catalog.naming", NamingTitle)
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("transfer.retries", 2)
	v.SetDefault("launch.env", map[string]string{
		"SDL_VIDEO_WINDOW_POS": "0,0",
		"SDL_VIDEO_CENTERED":   "1",
		"MONO_DEBUG":           "no-gdb-backtrace",
		"MONO_ENV_OPTIONS":     "--gc=sgen",
	})
	v.SetDefault("window.manage", false)
	v.SetDefault("display.width", 800)
	v.SetDefault("display.height", 480)
	v.SetDefault("input.pins", map[string]int{
		"UP": 27, "DOWN": 22, "LEFT": 23, "RIGHT": 24,
		"A": 4, "B": 14, "START": 5, "SELECT": 6,
	})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("update.mirror", "")
}

func settingsFrom(v *viper.Viper, dir string) (*Settings, error) {
	s := &Settings{
		Dir: dir,
		Repo: Repo{
			Owner:      v.GetString("repo.owner"),
			Name:       v.GetString("repo.name"),
			Path:       v.GetString("repo.path"),
			APIURL:     v.GetString("repo.api_url"),
			ListingURL: v.GetString("repo.listing_url"),
			Token:      v.GetString("repo.token"),
		},
		InstallRoot:     expandHome(v.GetString("install_root")),
		LocalDir:        expandHome(v.GetString("local_dir")),
		Naming:          v.GetString("catalog.naming"),
		HTTPTimeout:     v.GetDuration("http.timeout"),
		TransferRetries: v.GetInt("transfer.retries"),
		LaunchEnv:       upperKeys(v.GetStringMapString("launch.env")),
		ManageWindow:    v.GetBool("window.manage"),
		Display: Display{
			Width:  v.GetInt("display.width"),
			Height: v.GetInt("display.height"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   expandHome(v.GetString("log.file")),
		},
		UpdateMirror: v.GetString("update.mirror"),
	}

	var pins map[string]int
	if err := v.UnmarshalKey("input.pins", &pins); err != nil {
		return nil, fmt.Errorf("parsing input.pins: %w", err)
	}
	s.InputPins = upperKeys(pins)

	// Archives dropped into the install root double as the local catalog.
	if s.LocalDir == "" {
		s.LocalDir = s.InstallRoot
	}
	// Games are spawned from their own directory, so relative roots would
	// resolve against the wrong working directory.
	for _, p := range []*string{&s.InstallRoot, &s.LocalDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", *p, err)
		}
		*p = abs
	}
	if s.Repo.Token == "" {
		s.Repo.Token = os.Getenv("GITHUB_TOKEN")
	}

	switch s.Naming {
	case NamingTitle, NamingStem:
	default:
		return nil, fmt.Errorf("invalid catalog.naming %q: want %q or %q", s.Naming, NamingTitle, NamingStem)
	}
	if s.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid http.timeout %q", v.GetString("http.timeout"))
	}
	if s.TransferRetries < 0 {
		s.TransferRetries = 0
	}

	return s, nil
}

// StagingDir returns the hidden directory under the install root used for
// in-flight downloads and extractions.
func (s *Settings) StagingDir() string {
	return filepath.Join(s.InstallRoot, ".staging")
}

// upperKeys restores the conventional upper-case spelling that viper's
// case-insensitive keys lose.
func upperKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
