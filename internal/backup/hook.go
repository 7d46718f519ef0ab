package backup

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// session records which files already have a record from this process.
var session = struct {
	sync.Mutex
	done map[string]bool
}{done: make(map[string]bool)}

// EnsureBackedUp writes a record for path unless this process already wrote
// one, so a file touched several times in one run gets a single record.
// A missing path is not an error; there is nothing to preserve. A failed
// backup is not remembered and the next call tries again.
func EnsureBackedUp(mgr *Manager, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	session.Lock()
	defer session.Unlock()

	if session.done[key] {
		return nil
	}
	if _, err := mgr.Backup(path); err != nil {
		return errors.Wrapf(err, "creating backup for %s", path)
	}
	session.done[key] = true
	return nil
}

// ResetBackupState forgets which files were backed up. Tests use it to
// isolate runs.
func ResetBackupState() {
	session.Lock()
	defer session.Unlock()
	session.done = make(map[string]bool)
}
