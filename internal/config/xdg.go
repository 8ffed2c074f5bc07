package config

import (
	"os"
	"path/filepath"
)

const appName = "lexiread"

// xdgBase resolves an XDG base directory from env, falling back to a path
// under the user's home. When no home is known it falls back to ".".
func xdgBase(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// XDGConfigHome is $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string { return xdgBase("XDG_CONFIG_HOME", ".config") }

// XDGDataHome is $XDG_DATA_HOME or ~/.local/share.
func XDGDataHome() string { return xdgBase("XDG_DATA_HOME", ".local", "share") }

func dataPath(name string) string {
	return filepath.Join(XDGDataHome(), appName, name)
}

// DefaultDBPath is the SQLite database holding lessons and sessions.
func DefaultDBPath() string { return dataPath(appName + ".db") }

// DefaultLogPath is the log file used while the TUI owns the terminal.
func DefaultLogPath() string { return dataPath(appName + ".log") }

// DefaultModelDir is where recognizer models are looked up.
func DefaultModelDir() string { return dataPath("models") }

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}
