// Package flags provides shared state for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (backup).
package flags

import (
	"net/http"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/settings"
	"github.com/thoreinstein/confkeep/internal/validator"
)

// current holds the settings loaded by the root command.
var current *settings.Settings

// Settings returns the loaded settings, or the defaults when none were
// loaded.
func Settings() *settings.Settings {
	if current == nil {
		return &settings.Settings{
			CheckLevel:      validator.DefaultCheckLevel.String(),
			FetchTimeout:    settings.DefaultFetchTimeout,
			BackupRetention: settings.DefaultBackupRetention,
			LogFormat:       settings.DefaultLogFormat,
		}
	}
	return current
}

// SetSettings records the settings loaded by the root command.
func SetSettings(s *settings.Settings) {
	current = s
}

// BackupManager returns a backup manager honoring backup_retention.
func BackupManager() *backup.Manager {
	return backup.NewManager(backup.WithRetentionCount(Settings().BackupRetention))
}

// HTTPClient returns a client bounded by fetch_timeout.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: Settings().FetchTimeout}
}
