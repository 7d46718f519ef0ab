package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultRetentionCount is the number of records the CLI keeps per config
// file when no retention is configured.
const DefaultRetentionCount = 5

// ErrNoBackupsFound indicates no backup records exist for a config file.
var ErrNoBackupsFound = errors.New("no backups found")

// Record describes one backup copy of a config file.
type Record struct {
	// Path is the backup file, <Source>.backup.<Seq>.
	Path string `json:"path"`

	// Source is the config file the record was taken from.
	Source string `json:"source"`

	// Seq is the record's sequence number. Higher is newer.
	Seq int `json:"seq"`

	// CreatedAt is when the record was written. Records loaded from disk
	// use the file's modification time.
	CreatedAt time.Time `json:"created_at"`

	// SHA256Hash is the hex-encoded SHA256 hash of the record's contents.
	SHA256Hash string `json:"sha256_hash"`

	// Mode is the source file's permission bits at backup time.
	Mode fs.FileMode `json:"mode"`
}
