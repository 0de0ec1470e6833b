package common

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the data directory, mostly for tests and portable installs.
const HomeEnv = "CROSSFADER_HOME"

// ConfigDir is where config, store and log live (~/.crossfader).
func ConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crossfader"
	}
	return filepath.Join(home, ".crossfader")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

func DefaultStorePath() string {
	return filepath.Join(ConfigDir(), "store.json")
}

func LogPath() string {
	return filepath.Join(ConfigDir(), "crossfader.log")
}
