package store

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/validator"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

const refYAML = "port: 8080\ndebug: false\n"

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func countLevel(logs, level string) int {
	return strings.Count(logs, "level="+level)
}

func TestOpen_MissingFileDefaultLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := Open(t.Context(), Options{Path: path, Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, StatePersisted, s.State())
	assert.Equal(t, 0, s.Mapping().Len())
	assert.Nil(t, s.Backup())
	assert.Empty(t, s.Findings())
	assert.Equal(t, "{}\n", read(t, path))

	logs := buf.String()
	assert.Equal(t, 1, countLevel(logs, "WARN"), logs)
	assert.Contains(t, logs, "config file not found")
	assert.Zero(t, countLevel(logs, "ERROR"), logs)

	matches, _ := filepath.Glob(path + ".backup.*")
	assert.Empty(t, matches)
}

func TestOpen_StrictFieldWarnOnly(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.yaml", refYAML)
	path := write(t, dir, "app.yaml", "port: \"8080\"\n")

	s, err := Open(t.Context(), Options{
		Path:        path,
		RecoverPath: ref,
		CheckLevel:  "1121",
		Logger:      logging.ForTest(t),
	})
	require.NoError(t, err, "severity 1 never raises")

	// Strict fields report but never fill; type coercion still applies.
	assert.False(t, s.Mapping().Has("debug"))
	port, _ := s.Get("port")
	assert.Equal(t, confmap.Int(8080), port)

	require.Len(t, s.Findings(), 2)
	for _, f := range s.Findings() {
		assert.Equal(t, validator.SeverityWarning, f.Severity)
	}
	assert.Equal(t, validator.MissingField, s.Findings()[0].Kind)

	require.NotNil(t, s.Backup())
	assert.Equal(t, "port: \"8080\"\n", read(t, s.Backup().Path))
	assert.Equal(t, "port: 8080\n", read(t, path))
}

func TestOpen_StrictFieldFatal(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.yaml", refYAML)
	path := write(t, dir, "app.yaml", "port: 8080\n")

	s, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: "2121"})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "debug")

	assert.Equal(t, "port: 8080\n", read(t, path), "fatal validation must not write")
	matches, _ := filepath.Glob(path + ".backup.*")
	assert.Empty(t, matches)
}

func TestOpen_ReplaceWithReference(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.yaml", refYAML)
	path := write(t, dir, "app.yaml", "port: \"9999\"\nextra: 1\n")

	var backups []*backup.Record
	for run := 1; run <= 2; run++ {
		s, err := Open(t.Context(), Options{
			Path:        path,
			RecoverPath: ref,
			CheckLevel:  "1112",
			Logger:      logging.ForTest(t),
		})
		require.NoError(t, err)

		refMap, err := Parse(ref, "")
		require.NoError(t, err)
		assert.True(t, refMap.Equal(s.Mapping()))
		assert.Equal(t, refYAML, read(t, path))

		require.NotNil(t, s.Backup(), "run %d", run)
		assert.Equal(t, run, s.Backup().Seq)
		backups = append(backups, s.Backup())
	}

	assert.Equal(t, "port: \"9999\"\nextra: 1\n", read(t, backups[0].Path))
	assert.Equal(t, refYAML, read(t, backups[1].Path))
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.toml", "port = 8080\ndebug = false\n")
	path := write(t, dir, "app.toml", "port = \"8080\"\nextra = 1\n")

	first, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: "1131"})
	require.NoError(t, err)
	require.NotEmpty(t, first.Findings())
	afterFirst := read(t, path)

	second, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: "1130"})
	require.NoError(t, err)
	assert.Empty(t, second.Findings())
	assert.Nil(t, second.Backup())
	assert.Equal(t, afterFirst, read(t, path))
}

func TestOpen_DecodeErrorAlwaysFatal(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "app.yaml", "port: [1\n")

	for _, lvl := range []string{"0000", "1111", "2222"} {
		_, err := Open(t.Context(), Options{Path: path, CheckLevel: lvl})
		require.Error(t, err, lvl)
		assert.True(t, errors.Is(err, errors.ErrFormat), lvl)
	}
	assert.Equal(t, "port: [1\n", read(t, path))
}

func TestOpen_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")

	s, err := Open(t.Context(), Options{Path: path, CheckLevel: "1111", Logger: logging.ForTest(t)})
	require.NoError(t, err)
	assert.Equal(t, codec.Format(""), s.Format())
	assert.Equal(t, StateLoaded, s.State())
	assert.Equal(t, 0, s.Mapping().Len())

	s.Set("k", confmap.String("v"))
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, confmap.String("v"), v)

	err = s.Save()
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
	assert.NoFileExists(t, path)

	_, err = Open(t.Context(), Options{Path: path, CheckLevel: "2111"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
	assert.True(t, errors.Is(err, errors.ErrFormat))
}

func TestOpen_TypeOverride(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "app.conf", "name = svc\n\n[db]\nhost = localhost\n")

	s, err := Open(t.Context(), Options{Path: path, Type: "ini"})
	require.NoError(t, err)
	assert.Equal(t, codec.FormatINI, s.Format())

	name, _ := s.Get("name")
	assert.Equal(t, confmap.String("svc"), name)
	db, ok := s.Get("db")
	require.True(t, ok)
	assert.Equal(t, confmap.KindMap, db.Kind())
}

func TestOpen_ReferenceUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "app.yaml", "port: 8080\n")
	missing := filepath.Join(dir, "nope.yaml")

	_, err := Open(t.Context(), Options{Path: path, RecoverPath: missing, CheckLevel: "1111"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReferenceUnavailable))

	// Nothing was asked of the reference.
	s, err := Open(t.Context(), Options{Path: path, RecoverPath: missing, CheckLevel: "0000"})
	require.NoError(t, err)
	assert.Equal(t, StatePersisted, s.State())

	// Skipping validation skips the reference and recovery too.
	s, err = Open(t.Context(), Options{Path: path, RecoverPath: missing, CheckLevel: "0002"})
	require.NoError(t, err)
	assert.Nil(t, s.Backup())
	assert.Equal(t, "port: 8080\n", read(t, path))
}

func TestOpen_SkipLevelNeverRecovers(t *testing.T) {
	const content = "port: 1\nmine: keep\n"

	for _, lvl := range []string{"0001", "0002", "0232"} {
		t.Run(lvl, func(t *testing.T) {
			dir := t.TempDir()
			ref := write(t, dir, "defaults.yaml", refYAML)
			path := write(t, dir, "app.yaml", content)

			s, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: lvl})
			require.NoError(t, err)

			assert.Equal(t, StatePersisted, s.State())
			assert.Nil(t, s.Backup())
			assert.Empty(t, s.Findings())
			assert.Equal(t, content, read(t, path))

			matches, _ := filepath.Glob(path + ".backup.*")
			assert.Empty(t, matches)
		})
	}
}

func TestOpen_ReplaceWithoutReferenceKeepsConfig(t *testing.T) {
	const content = "port: 1\nmine: keep\n"
	dir := t.TempDir()
	path := write(t, dir, "app.yaml", content)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := Open(t.Context(), Options{Path: path, CheckLevel: "1112", Logger: logger})
	require.NoError(t, err)

	assert.Nil(t, s.Backup())
	assert.Equal(t, 2, s.Mapping().Len())
	assert.Equal(t, content, read(t, path))
	assert.Contains(t, buf.String(), "no reference configured")

	matches, _ := filepath.Glob(path + ".backup.*")
	assert.Empty(t, matches)
}

func TestOpen_UnchangedPatchWritesNoBackup(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.yaml", refYAML)
	path := write(t, dir, "app.yaml", refYAML)

	for range 3 {
		s, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: "1111"})
		require.NoError(t, err)
		assert.Nil(t, s.Backup())
	}
	matches, _ := filepath.Glob(path + ".backup.*")
	assert.Empty(t, matches)
}

func TestOpen_RemoteReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(refYAML))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := write(t, dir, "app.toml", "port = 8080\n")

	s, err := Open(t.Context(), Options{
		Path:        path,
		RecoverPath: srv.URL + "/defaults",
		CheckLevel:  "1111",
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)

	debug, ok := s.Get("debug")
	require.True(t, ok)
	assert.Equal(t, confmap.Bool(false), debug)
	assert.Equal(t, "debug = false\nport = 8080\n", read(t, path))
}

func TestOpen_PersistError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "app.yaml")

	s, err := Open(t.Context(), Options{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersist))

	// The in-memory state survives the failed write.
	require.NotNil(t, s)
	assert.Equal(t, StateUnchanged, s.State())
	assert.Equal(t, 0, s.Mapping().Len())
}

func TestOpen_EncodeErrorIsPersistError(t *testing.T) {
	dir := t.TempDir()
	ref := write(t, dir, "defaults.yaml", "section:\n  nested:\n    deep: 1\n")
	path := write(t, dir, "app.ini", "")

	_, err := Open(t.Context(), Options{Path: path, RecoverPath: ref, CheckLevel: "1112"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersist))
	assert.True(t, errors.Is(err, errors.ErrFormat))
}

func TestOpen_InvalidCheckLevel(t *testing.T) {
	_, err := Open(t.Context(), Options{Path: "app.yaml", CheckLevel: "9999"})
	assert.True(t, errors.Is(err, errors.ErrInvalidCheckLevel))

	_, err = Open(t.Context(), Options{})
	assert.Error(t, err)
}

func TestOpen_PreservesFileMode(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "app.yaml", "port: 8080\n")
	require.NoError(t, os.Chmod(path, 0o600))

	_, err := Open(t.Context(), Options{Path: path})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_SetAndSave(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "app.yaml", "port: 8080\n")

	s, err := Open(t.Context(), Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, validator.DefaultCheckLevel, s.CheckLevel())
	assert.Equal(t, path, s.Path())

	s.Set("debug", confmap.Bool(true))
	s.Set("port", confmap.Int(9090))
	require.NoError(t, s.Save())

	m, err := Parse(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"port", "debug"}, m.Keys())
	assert.Equal(t, "port: 9090\ndebug: true\n", read(t, path))

	// Mapping is a copy.
	s.Mapping().Set("port", confmap.Int(1))
	port, _ := s.Get("port")
	assert.Equal(t, confmap.Int(9090), port)
}

func TestParse(t *testing.T) {
	dir := t.TempDir()

	m, err := Parse(filepath.Join(dir, "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	path := write(t, dir, "data.txt", "a: 1\n")
	m, err = Parse(path, "yml")
	require.NoError(t, err)
	assert.True(t, m.Has("a"))

	_, err = Parse(path, "")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "persisted", StatePersisted.String())
	assert.Equal(t, "unknown", State(99).String())
}
