package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the confkeep directories under the XDG roots.
const AppName = "confkeep"

// SettingsFileName is the CLI settings file inside ConfigDir.
const SettingsFileName = "config.yaml"

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or "" if it cannot be determined.
// Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// StateHome returns the XDG state home directory.
// On Linux: ~/.local/state
func StateHome() string {
	return xdg.StateHome
}

// ConfigDir returns <ConfigHome>/confkeep.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// SettingsFile returns <ConfigHome>/confkeep/config.yaml.
func SettingsFile() string {
	return filepath.Join(ConfigDir(), SettingsFileName)
}

// DefaultLogFile returns <StateHome>/confkeep/confkeep.log.
func DefaultLogFile() string {
	return filepath.Join(StateHome(), AppName, AppName+".log")
}

// ExpandHome expands a leading ~ to the user's home directory.
// Paths without one, or when home cannot be resolved, are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := ResolveHome()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
