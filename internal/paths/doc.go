// Package paths resolves the locations confkeep keeps its own files in.
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux and macOS, paths follow XDG conventions
// (~/.config, ~/.local/state).
//
//	paths.SettingsFile()   // ~/.config/confkeep/config.yaml
//	paths.DefaultLogFile() // ~/.local/state/confkeep/confkeep.log
//
// Config files managed by confkeep live wherever the user points it; only
// the CLI's settings and logs use these locations.
package paths
