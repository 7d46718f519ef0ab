package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/confkeep/pkg/fileutil"
)

// maxSeqAttempts bounds how far Backup probes past the highest known
// sequence number when a record appears concurrently.
const maxSeqAttempts = 100

// Manager handles backup creation, restoration, and pruning for config files.
type Manager struct {
	retentionCount int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetentionCount makes Backup prune all but the n newest records after
// writing a new one. Without it every record is kept.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// NewManager creates a new backup Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backup copies the file at path to a new record <path>.backup.<n>, where n is
// one more than the highest existing sequence number. Existing records are
// never overwritten.
func (m *Manager) Backup(path string) (*Record, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errors.Newf("%s is a directory", path)
	}

	seq, err := m.highestSeq(path)
	if err != nil {
		return nil, err
	}

	for range maxSeqAttempts {
		seq++
		dst := RecordPath(path, seq)

		hash, mode, err := copyFile(path, dst)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "backing up %s", path)
		}

		rec := &Record{
			Path:       dst,
			Source:     path,
			Seq:        seq,
			CreatedAt:  time.Now().UTC(),
			SHA256Hash: hash,
			Mode:       mode,
		}

		if m.retentionCount > 0 {
			if err := m.Prune(path, m.retentionCount); err != nil {
				return rec, errors.Wrap(err, "pruning old backups")
			}
		}
		return rec, nil
	}

	return nil, errors.Newf("no free backup slot for %s", path)
}

// Restore copies record seq back over path atomically, applying the
// permissions the source had when the record was taken.
func (m *Manager) Restore(path string, seq int) error {
	if path == "" {
		return errors.New("path is required")
	}

	rec, err := m.Get(path, seq)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		return errors.Wrapf(err, "reading backup %s", rec.Path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	if err := fileutil.AtomicWriteFile(path, data, rec.Mode.Perm()); err != nil {
		return errors.Wrapf(err, "restoring %s", path)
	}

	return nil
}

// List returns all backup records for path, sorted by sequence (newest first).
func (m *Manager) List(path string) ([]Record, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		seq, ok := parseSeq(filepath.Base(path), entry.Name())
		if !ok {
			continue
		}

		rec, err := loadRecord(path, RecordPath(path, seq), seq)
		if err != nil {
			// Skip records that vanished or became unreadable
			continue
		}
		records = append(records, *rec)
	}

	if len(records) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortFunc(records, func(a, b Record) int {
		return b.Seq - a.Seq
	})

	return records, nil
}

// Prune removes records beyond the keep newest for path.
func (m *Manager) Prune(path string, keep int) error {
	if path == "" {
		return errors.New("path is required")
	}
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	records, err := m.List(path)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil // Nothing to prune
		}
		return err
	}

	// Already sorted newest first, delete everything beyond 'keep'
	for i := keep; i < len(records); i++ {
		if err := os.Remove(records[i].Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing backup %s", records[i].Path)
		}
	}

	return nil
}

// Get returns record seq for path.
func (m *Manager) Get(path string, seq int) (*Record, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if seq < 1 {
		return nil, errors.Newf("invalid backup sequence %d", seq)
	}

	rec, err := loadRecord(path, RecordPath(path, seq), seq)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNoBackupsFound, "backup %d of %s not found", seq, path)
		}
		return nil, err
	}
	return rec, nil
}

// highestSeq returns the largest sequence number among path's records, or 0.
func (m *Manager) highestSeq(path string) (int, error) {
	records, err := m.List(path)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return 0, nil
		}
		return 0, err
	}
	return records[0].Seq, nil
}

func loadRecord(source, recPath string, seq int) (*Record, error) {
	info, err := os.Stat(recPath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", recPath)
	}
	hash, err := hashFile(recPath)
	if err != nil {
		return nil, err
	}
	return &Record{
		Path:       recPath,
		Source:     source,
		Seq:        seq,
		CreatedAt:  info.ModTime().UTC(),
		SHA256Hash: hash,
		Mode:       info.Mode().Perm(),
	}, nil
}

// hashFile computes the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to a new file dst, returning the SHA256 hash and mode.
// dst must not exist; if it does the returned error matches fs.ErrExist.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode().Perm()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating backup file")
	}

	// Compute hash while copying
	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	if _, err := io.Copy(w, srcFile); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return "", 0, errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		os.Remove(dst)
		return "", 0, errors.Wrap(err, "closing backup file")
	}

	// Set permissions to match source
	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}

	return hex.EncodeToString(h.Sum(nil)), mode, nil
}
