// Package config loads the application configuration and resolves its
// default file locations.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppDir is the per-user configuration directory name.
const AppDir = "razborka"

// ExpandPath expands a leading ~ and $VAR environment variables in a
// file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns the configuration directory, ~/.config/razborka by default.
func Dir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, AppDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppDir
	}
	return filepath.Join(home, ".config", AppDir)
}

// DefaultDataDir is the data directory used when none is configured.
func DefaultDataDir() string {
	return filepath.Join(Dir(), "data")
}

// DefaultDatabasePath is the refresh journal location used when none is
// configured.
func DefaultDatabasePath() string {
	return filepath.Join(Dir(), "razborka.db")
}
