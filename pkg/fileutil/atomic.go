// Package fileutil holds the file primitives config persistence relies on:
// atomic replacement and size-limited reads.
package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// DefaultFilePerm is applied to files that did not exist before being written.
const DefaultFilePerm fs.FileMode = 0o644

// AtomicWriteFile replaces path with data so that readers see either the old
// file or the new one, never a partial write. The data is written to a
// temporary file in the same directory, synced, chmodded to perm and renamed
// over path.
//
// The parent directory must exist.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	steps := []struct {
		what string
		fn   func() error
	}{
		{"writing temp file", func() error { _, err := tmp.Write(data); return err }},
		{"syncing temp file", tmp.Sync},
		{"setting file permissions", func() error { return tmp.Chmod(perm) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			_ = tmp.Close()
			return errors.Wrap(err, s.what)
		}
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	renamed = true
	return nil
}

// AtomicReplaceFile writes data to path atomically, keeping the permissions of
// the file it replaces. New files get DefaultFilePerm. When path is a
// symlink the link target is replaced and the link is left in place.
func AtomicReplaceFile(path string, data []byte) error {
	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	}

	perm := DefaultFilePerm
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	}
	return AtomicWriteFile(target, data, perm)
}
