// Package store loads a config file, validates it against a reference,
// applies the recovery policy and writes the result back.
package store

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/recovery"
	"github.com/thoreinstein/confkeep/internal/reference"
	"github.com/thoreinstein/confkeep/internal/validator"
	"github.com/thoreinstein/confkeep/pkg/confmap"
	"github.com/thoreinstein/confkeep/pkg/fileutil"
)

// Options configures Open.
type Options struct {
	// Path is the config file. Required.
	Path string
	// Type overrides the format implied by Path's extension.
	Type string
	// RecoverPath is a local path or HTTP(S) URL of the reference config.
	// Empty means there is nothing to validate against.
	RecoverPath string
	// CheckLevel is the four-digit policy code. Empty means "1111".
	CheckLevel string
	// Logger receives pipeline events. Nil discards them.
	Logger *slog.Logger
	// HTTPClient fetches remote references. Nil uses a client with
	// reference.DefaultTimeout.
	HTTPClient *http.Client
	// Backups writes recovery backups. Nil uses backup.NewManager().
	Backups *backup.Manager
}

// Store is a loaded, validated and persisted config file.
type Store struct {
	path     string
	codec    codec.Codec
	level    validator.CheckLevel
	mapping  *confmap.Mapping
	state    State
	findings []validator.Finding
	backup   *backup.Record
	logger   *slog.Logger
}

// Open runs the pipeline once: load, validate, recover, persist.
//
// A missing file loads as an empty mapping. An unsupported file type is fatal
// only when the error digit is 2; otherwise the store holds an empty mapping
// in memory and nothing is validated or written. Malformed bytes are always
// fatal. A fatal validation result returns an error matching
// errors.ErrValidation and leaves the file untouched. Write failures match
// errors.ErrPersist.
//
// An error digit of 0 skips the reference, validation and recovery alike.
// Recovery digit 2 without a RecoverPath keeps the config as loaded.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("config path is required")
	}

	level, err := validator.ParseCheckLevel(opts.CheckLevel)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscard()
	}
	logger = logger.With("path", opts.Path)

	s := &Store{
		path:   opts.Path,
		level:  level,
		logger: logger,
	}

	c, err := resolveCodec(opts.Path, opts.Type)
	if err != nil {
		if level.Errors == validator.ErrorsFatal {
			return nil, err
		}
		logger.Warn("unsupported config type, keeping config in memory only", "error", err)
		s.mapping = confmap.New()
		s.state = StateLoaded
		return s, nil
	}
	s.codec = c

	if err := s.load(); err != nil {
		return nil, err
	}

	ref, err := s.fetchReference(ctx, opts)
	if err != nil {
		return nil, err
	}

	corrected, err := s.validate(ref)
	if err != nil {
		return nil, err
	}

	rm := recovery.NewManager(opts.Backups, logger)
	out, err := rm.Recover(s.path, s.mapping, corrected, ref, s.recoveryMode(opts))
	if err != nil {
		return nil, err
	}
	s.mapping = out.Mapping
	s.backup = out.Backup
	if out.Changed {
		s.state = StateRecovered
	} else {
		s.state = StateUnchanged
	}

	if err := s.persist(); err != nil {
		return s, err
	}
	s.state = StatePersisted

	return s, nil
}

func (s *Store) load() error {
	m, found, err := readMapping(s.codec, s.path)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Warn("config file not found, starting empty")
	} else {
		s.logger.Debug("config loaded", "format", string(s.codec.Format()), "keys", m.Len())
	}
	s.mapping = m
	s.state = StateLoaded
	return nil
}

// fetchReference returns the reference mapping, or an empty one when no
// locator is configured or validation is skipped. Once fetched, an
// unreachable reference is always an error.
func (s *Store) fetchReference(ctx context.Context, opts Options) (*confmap.Mapping, error) {
	if opts.RecoverPath == "" || !s.level.Enabled() {
		return confmap.New(), nil
	}

	src := reference.NewSource(
		reference.WithHTTPClient(opts.HTTPClient),
		reference.WithLogger(s.logger),
	)
	return src.Fetch(ctx, opts.RecoverPath)
}

// recoveryMode is the level's recovery digit, except that a skipped
// validation never recovers and replace needs a configured reference.
func (s *Store) recoveryMode(opts Options) validator.RecoveryMode {
	mode := s.level.Recovery
	switch {
	case !s.level.Enabled():
		return validator.RecoverNone
	case mode == validator.RecoverReplace && opts.RecoverPath == "":
		s.logger.Warn("no reference configured, not replacing config")
		return validator.RecoverNone
	}
	return mode
}

func (s *Store) validate(ref *confmap.Mapping) (*confmap.Mapping, error) {
	res := validator.Validate(s.mapping, ref, s.level)
	validator.LogFindings(s.logger, res.Findings)
	s.findings = res.Findings
	if err := res.Err(); err != nil {
		return nil, errors.Wrapf(err, "validating %s", s.path)
	}
	s.state = StateValidated
	return res.Mapping, nil
}

func (s *Store) persist() error {
	data, err := s.codec.Encode(s.mapping)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "encoding %s", s.path), errors.ErrPersist)
	}
	if err := fileutil.AtomicReplaceFile(s.path, data); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing %s", s.path), errors.ErrPersist)
	}
	s.logger.Debug("config persisted", "bytes", len(data))
	return nil
}

// Save writes the in-memory mapping back to disk. It does not re-validate.
func (s *Store) Save() error {
	if s.codec == nil {
		return errors.Mark(
			errors.Newf("cannot save %s: no codec for its type", s.path),
			errors.ErrUnsupportedFormat)
	}
	if err := s.persist(); err != nil {
		return err
	}
	s.state = StatePersisted
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (confmap.Value, bool) {
	return s.mapping.Get(key)
}

// Set stores v under key in memory. Call Save to write it.
func (s *Store) Set(key string, v confmap.Value) {
	s.mapping.Set(key, v)
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Format returns the codec format, or "" in memory-only mode.
func (s *Store) Format() codec.Format {
	if s.codec == nil {
		return ""
	}
	return s.codec.Format()
}

// CheckLevel returns the parsed check level.
func (s *Store) CheckLevel() validator.CheckLevel { return s.level }

// State returns how far the pipeline got.
func (s *Store) State() State { return s.state }

// Findings returns the findings from the validation pass.
func (s *Store) Findings() []validator.Finding { return s.findings }

// Backup returns the record written by recovery, or nil.
func (s *Store) Backup() *backup.Record { return s.backup }

// Mapping returns a copy of the in-memory config.
func (s *Store) Mapping() *confmap.Mapping { return s.mapping.Clone() }

// Parse decodes the file at path without validating it. typ overrides the
// extension. A missing file parses as an empty mapping.
func Parse(path, typ string) (*confmap.Mapping, error) {
	c, err := resolveCodec(path, typ)
	if err != nil {
		return nil, err
	}
	m, _, err := readMapping(c, path)
	return m, err
}

func resolveCodec(path, typ string) (codec.Codec, error) {
	if typ != "" {
		return codec.ForFormat(typ)
	}
	return codec.ForPath(path)
}

// readMapping reports found=false with an empty mapping when path does not
// exist.
func readMapping(c codec.Codec, path string) (*confmap.Mapping, bool, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return confmap.New(), false, nil
		}
		return nil, false, errors.Wrapf(err, "reading %s", path)
	}
	m, err := c.Decode(data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "parsing %s", path)
	}
	return m, true, nil
}
