package config

import (
	"os"
	"path/filepath"
)

const appName = "glyphtype"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultWordListDir returns the directory of word list overrides.
func DefaultWordListDir() string {
	return filepath.Join(XDGConfigHome(), appName, "wordlists")
}

// DefaultLayoutDir returns the directory of user layout definitions.
func DefaultLayoutDir() string {
	return filepath.Join(XDGConfigHome(), appName, "layouts")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultLogPath returns the default log file.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appName, appName+".log")
}
