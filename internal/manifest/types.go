package manifest

import "time"

const (
	// FileName is the manifest a game archive may ship at its top level.
	FileName = "game.yaml"
	// RecordFileName is the install record written by the launcher.
	RecordFileName = ".earthlauncher.yaml"
)

// GameManifest describes a game as declared by its author.
type GameManifest struct {
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version,omitempty" json:"version,omitempty"`
	Entry       string            `yaml:"entry,omitempty" json:"entry,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Record is the informational install record kept inside each installed
// game directory. It is never used to decide whether a game is installed.
type Record struct {
	Name        string    `yaml:"name" json:"name"`
	Version     string    `yaml:"version,omitempty" json:"version,omitempty"`
	Locator     string    `yaml:"locator" json:"locator"`
	Size        int64     `yaml:"size" json:"size"`
	Executable  string    `yaml:"executable" json:"executable"`
	InstalledAt time.Time `yaml:"installed_at" json:"installed_at"`
	JobID       string    `yaml:"job_id" json:"job_id"`
}
