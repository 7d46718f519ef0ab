package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// execute runs the root command quietly with args and returns combined
// output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeRoot(t, append([]string{"-q"}, args...)...)
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset command-local flag state between runs.
	checkFlags, getFlags, setFlags = pipelineFlags{}, pipelineFlags{}, pipelineFlags{}
	editFlags = pipelineFlags{}
	checkJSON, checkDiff, setString, editKeep = false, false, false, false
	doctorJSON, doctorAll, doctorFix, doctorType = false, false, false, ""
	convertFrom, convertTo = "", ""
	verbosity, quiet, logFormat, logFile = 0, false, "", ""
	backup.ResetBackupState()

	settingsFile := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(settingsFile, []byte("check_level: \"1111\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--settings", settingsFile}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheck_FillsMissing(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "defaults.yaml", "port: 8080\ndebug: false\n")
	path := writeFile(t, dir, "app.yaml", "port: 9090\n")

	out, err := execute(t, "check", path, "--recover-path", ref)
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Validation findings for") || !strings.Contains(out, "1 warning(s)") {
		t.Errorf("unexpected report:\n%s", out)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "port: 9090\ndebug: false\n" {
		t.Errorf("file after check = %q", got)
	}
	if _, err := os.Stat(path + ".backup.1"); err != nil {
		t.Errorf("expected backup record: %v", err)
	}
}

func TestCheck_Diff(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "defaults.yaml", "port: 8080\ndebug: false\n")
	path := writeFile(t, dir, "app.yaml", "port: 9090\n")

	out, err := execute(t, "check", path, "-r", ref, "--diff")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "+debug: false\n") || !strings.Contains(out, " port: 9090\n") {
		t.Errorf("missing diff:\n%s", out)
	}

	// Nothing left to change on the second run.
	out, err = execute(t, "check", path, "-r", ref, "--diff")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "+++") {
		t.Errorf("unexpected diff on clean file:\n%s", out)
	}
}

func TestCheck_FatalLevel(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "defaults.yaml", "port: 8080\ndebug: false\n")
	path := writeFile(t, dir, "app.yaml", "port: 9090\n")

	out, err := execute(t, "check", path, "-r", ref, "--level", "2121")
	if err == nil {
		t.Fatal("check with strict level should fail")
	}
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if got := errors.Classify(err).Code; got != errors.ExitUser {
		t.Errorf("exit code = %d, want %d", got, errors.ExitUser)
	}
	if !strings.Contains(out, "Validation failed for") || !strings.Contains(out, "debug") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestCheck_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.toml", "port = 1\n")

	out, err := execute(t, "check", path, "--json")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, `"check_level": "1111"`) || !strings.Contains(out, `"findings": []`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}

func TestCheck_InvalidLevel(t *testing.T) {
	_, err := execute(t, "check", filepath.Join(t.TempDir(), "app.yaml"), "--level", "12")
	if !errors.Is(err, errors.ErrInvalidCheckLevel) {
		t.Errorf("error = %v, want ErrInvalidCheckLevel", err)
	}
}

func TestGet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", "name: svc\ndb:\n  port: 5432\n  host: local\n")

	out, err := execute(t, "get", path, "name")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "svc\n" {
		t.Errorf("get name = %q, want %q", out, "svc\n")
	}

	out, err = execute(t, "get", path, "db")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "port: 5432\nhost: local\n" {
		t.Errorf("get db = %q", out)
	}

	_, err = execute(t, "get", path, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("get missing error = %v, want ErrNotFound", err)
	}
}

func TestSet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.toml", "port = 8080\n")

	out, err := execute(t, "set", path, "port", "9090", "--level", "1110")
	if err != nil {
		t.Fatalf("set error = %v", err)
	}
	if !strings.Contains(out, "port = 9090") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := execute(t, "set", path, "name", "8080", "--string", "--level", "1110"); err != nil {
		t.Fatalf("set --string error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := codec.ForFormat("toml")
	m, err := c.Decode(got)
	if err != nil {
		t.Fatalf("decoding %q: %v", got, err)
	}
	if v, _ := m.Get("port"); v.String() != "9090" || v.Kind() != confmap.KindInt {
		t.Errorf("port = %s (%s), want integer 9090", v, v.Kind())
	}
	if v, _ := m.Get("name"); v.Kind() != confmap.KindString {
		t.Errorf("name kind = %s, want string", v.Kind())
	}

	backup1, err := os.ReadFile(path + ".backup.1")
	if err != nil {
		t.Fatalf("expected a backup before the first edit: %v", err)
	}
	if string(backup1) != "port = 8080\n" {
		t.Errorf("backup content = %q", backup1)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		kind    string
		wantErr bool
	}{
		{"8080", "8080", "integer", false},
		{"1.5", "1.5", "float", false},
		{"true", "true", "boolean", false},
		{`"8080"`, "8080", "string", false},
		{"2024-01-02", "2024-01-02", "string", false},
		{"", "null", "null", false},
		{"[1, 2]", "", "", true},
		{"a: 1", "", "", true},
	}

	for _, tt := range tests {
		v, err := parseValue(tt.raw, false)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseValue(%q) should fail", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseValue(%q) error = %v", tt.raw, err)
			continue
		}
		if v.String() != tt.want || v.Kind().String() != tt.kind {
			t.Errorf("parseValue(%q) = %s (%s), want %s (%s)", tt.raw, v, v.Kind(), tt.want, tt.kind)
		}
	}

	v, _ := parseValue("true", true)
	if v.Kind().String() != "string" {
		t.Errorf("parseValue with asString kind = %s", v.Kind())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "confkeep version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestQuietAndVerbose(t *testing.T) {
	_, err := execute(t, "-v", "version")
	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != errors.ExitUser {
		t.Errorf("error = %v, want user ExitError", err)
	}
}

// fakeEditor makes $EDITOR overwrite the edited file with content.
func fakeEditor(t *testing.T, content string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script editor")
	}
	dir := t.TempDir()
	src := writeFile(t, dir, "new-content", content)
	script := filepath.Join(dir, "editor.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat "+src+" > \"$1\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EDITOR", script)
	t.Setenv("VISUAL", "")
}

func TestEdit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", "port: 1\n")
	fakeEditor(t, "port: 2\n")

	if out, err := execute(t, "edit", path, "--level", "1110"); err != nil {
		t.Fatalf("edit error = %v\n%s", err, out)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "port: 2\n" {
		t.Errorf("file after edit = %q", got)
	}
	backup1, _ := os.ReadFile(path + ".backup.1")
	if string(backup1) != "port: 1\n" {
		t.Errorf("pre-edit backup = %q", backup1)
	}
}

func TestEdit_RevertsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", "port: 1\n")
	fakeEditor(t, "port: [1, 2\n")

	_, err := execute(t, "edit", path, "--level", "1110")
	if !errors.Is(err, errors.ErrFormat) {
		t.Fatalf("edit error = %v, want ErrFormat", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "port: 1\n" {
		t.Errorf("file after revert = %q", got)
	}

	fakeEditor(t, "port: [1, 2\n")
	if _, err := execute(t, "edit", path, "--level", "1110", "--keep"); err == nil {
		t.Fatal("edit --keep of a broken file should still fail")
	}
	got, _ = os.ReadFile(path)
	if string(got) != "port: [1, 2\n" {
		t.Errorf("file after --keep = %q", got)
	}
}

func TestDoctor(t *testing.T) {
	t.Setenv("EDITOR", "sh")
	dir := t.TempDir()
	good := writeFile(t, dir, "app.yaml", "port: 1\n")

	out, err := executeRoot(t, "doctor", good, "--all")
	if err != nil {
		t.Fatalf("doctor error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "[file] file:"+good+": file parses") {
		t.Errorf("missing file result:\n%s", out)
	}
	if !strings.Contains(out, "Summary: 3 passed, 0 info, 0 warnings, 0 errors") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	bad := writeFile(t, dir, "bad.toml", "port = \n")
	out, err = executeRoot(t, "doctor", bad)
	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != errors.ExitSystem {
		t.Fatalf("doctor on broken file error = %v", err)
	}
	if !strings.Contains(out, "file does not parse") || strings.Contains(out, "settings loaded") {
		t.Errorf("default output should list only problems:\n%s", out)
	}
}

func TestDoctor_Fix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	t.Setenv("EDITOR", "sh")
	path := writeFile(t, t.TempDir(), "app.yaml", "port: 1\n")
	if err := os.Chmod(path, 0o666); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "doctor", path); err == nil {
		t.Fatal("world-writable file should produce a warning")
	}

	out, err := executeRoot(t, "doctor", path, "--fix")
	if err != nil {
		t.Fatalf("doctor --fix error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ fix "+path+": chmod 0644") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "confkeep.log")
	path := filepath.Join(dir, "app.yaml")

	out, err := executeRoot(t, "--log-file="+logPath, "check", path)
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "WARN config file not found") {
		t.Errorf("terminal log missing warning:\n%s", out)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log file line is not JSON: %v\n%s", err, data)
	}
	if run, _ := entry["run"].(string); len(run) != 36 {
		t.Errorf("run id = %v, want a UUID", entry["run"])
	}
	if entry["path"] != path {
		t.Errorf("path = %v, want %s", entry["path"], path)
	}
}

type closedWriter struct{}

func (closedWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestEdit_ReportFailureKept(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "defaults.yaml", "port: 1\ndebug: false\n")
	path := writeFile(t, dir, "app.yaml", "port: 1\ndebug: false\n")
	fakeEditor(t, "port: 1\n")

	editFlags = pipelineFlags{recoverPath: ref, level: "2020"}
	editKeep = false
	t.Cleanup(func() { editFlags = pipelineFlags{} })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEdit(cmd, []string{path}, closedWriter{})
	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("runEdit() error = %v, want ErrValidation", err)
	}
	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("runEdit() error = %T, want *ExitError", err)
	}
	if detail := fmt.Sprintf("%+v", exitErr.Err); !strings.Contains(detail, "reporting findings") {
		t.Errorf("report failure dropped from error:\n%s", detail)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "port: 1\ndebug: false\n" {
		t.Errorf("file after revert = %q", got)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "app.toml", "name = \"svc\"\nport = 8080\n")

	out, err := execute(t, "convert", src, "--to", "yml")
	if err != nil {
		t.Fatalf("convert to stdout error = %v", err)
	}
	if out != "name: svc\nport: 8080\n" {
		t.Errorf("stdout = %q", out)
	}

	dst := writeFile(t, dir, "app.yaml", "old: true\n")
	if _, err := execute(t, "convert", src, dst); err != nil {
		t.Fatalf("convert to file error = %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "name: svc\nport: 8080\n" {
		t.Errorf("dst = %q", got)
	}
	old, _ := os.ReadFile(dst + ".backup.1")
	if string(old) != "old: true\n" {
		t.Errorf("dst backup = %q", old)
	}
}

func TestConvert_Errors(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "app.yaml", "a:\n  b:\n    c: 1\n")

	tests := []struct {
		name string
		args []string
		kind error
	}{
		{"no target", []string{"convert", src}, nil},
		{"unknown format", []string{"convert", src, "--to", "json"}, errors.ErrUnsupportedFormat},
		{"too deep for ini", []string{"convert", src, "--to", "ini"}, errors.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "app.ini")); !os.IsNotExist(err) {
		t.Error("failed conversion must not write a file")
	}
}
