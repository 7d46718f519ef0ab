// Package recovery decides what config gets persisted after validation:
// the original, the corrected mapping, or the reference itself.
package recovery

import (
	"log/slog"
	"os"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/validator"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// Outcome is the mapping chosen by [Manager.Recover].
type Outcome struct {
	// Mapping is the config to persist.
	Mapping *confmap.Mapping
	// Backup is the record written before adopting Mapping, or nil when no
	// backup was taken.
	Backup *backup.Record
	// Changed is true when Mapping replaced the original.
	Changed bool
}

// Manager applies a recovery mode to a validated config.
type Manager struct {
	backups *backup.Manager
	logger  *slog.Logger
}

// NewManager returns a Manager that writes backups through backups. A nil
// backups uses backup.NewManager(); a nil logger discards output.
func NewManager(backups *backup.Manager, logger *slog.Logger) *Manager {
	if backups == nil {
		backups = backup.NewManager()
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Manager{backups: backups, logger: logger}
}

// Recover picks the mapping to persist for the file at path.
//
// RecoverNone keeps original. RecoverPatch adopts corrected and
// RecoverReplace adopts a copy of reference; both back up the file on disk
// first. A patch that changes nothing is not a change and writes no record;
// replace always does. A file that does not exist yet has nothing to
// preserve, so no record is written. A failed backup is a persist error and
// nothing is adopted.
func (m *Manager) Recover(path string, original, corrected, reference *confmap.Mapping, mode validator.RecoveryMode) (Outcome, error) {
	var next *confmap.Mapping
	switch mode {
	case validator.RecoverNone:
		return Outcome{Mapping: original}, nil
	case validator.RecoverPatch:
		if corrected.Equal(original) {
			return Outcome{Mapping: corrected}, nil
		}
		next = corrected
	case validator.RecoverReplace:
		next = reference.Clone()
	default:
		return Outcome{}, errors.Newf("unknown recovery mode %d", mode)
	}

	out := Outcome{Mapping: next, Changed: true}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("no file on disk, skipping backup", "path", path)
			return out, nil
		}
		return Outcome{}, errors.Mark(errors.Wrapf(err, "stat %s", path), errors.ErrPersist)
	}

	rec, err := m.backups.Backup(path)
	if err != nil {
		return Outcome{}, errors.Mark(errors.Wrap(err, "backing up config before recovery"), errors.ErrPersist)
	}
	out.Backup = rec

	m.logger.Info("config backed up", "path", path, "backup", rec.Path, "recovery", int(mode))
	return out, nil
}
