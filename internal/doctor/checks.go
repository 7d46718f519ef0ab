package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/editor"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/store"
)

// SettingsCheck reports whether the settings file loaded.
type SettingsCheck struct {
	path    string
	loadErr error
}

var _ Check = (*SettingsCheck)(nil)

// NewSettingsCheck creates a check for the settings file at path. loadErr is
// the error the CLI got when loading it, if any.
func NewSettingsCheck(path string, loadErr error) *SettingsCheck {
	return &SettingsCheck{path: path, loadErr: loadErr}
}

// Name returns the unique identifier for this check.
func (c *SettingsCheck) Name() string { return "settings" }

// Category returns the grouping for this check.
func (c *SettingsCheck) Category() string { return "settings" }

// Run executes the check.
func (c *SettingsCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": c.path},
	}

	if c.loadErr != nil {
		result.Status = SeverityError
		result.Message = "settings could not be loaded"
		result.Details["error"] = c.loadErr.Error()
		result.FixHint = "Fix or remove " + c.path
		return result
	}

	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		result.Status = SeverityInfo
		result.Message = "no settings file, using defaults"
		return result
	}

	result.Status = SeverityPass
	result.Message = "settings loaded"
	return result
}

// EditorCheck reports whether the editor used by `confkeep edit` resolves.
type EditorCheck struct{}

var _ Check = (*EditorCheck)(nil)

// NewEditorCheck creates an editor check.
func NewEditorCheck() *EditorCheck { return &EditorCheck{} }

// Name returns the unique identifier for this check.
func (c *EditorCheck) Name() string { return "editor" }

// Category returns the grouping for this check.
func (c *EditorCheck) Category() string { return "environment" }

// Run executes the check.
func (c *EditorCheck) Run() *CheckResult {
	command := editor.Command()
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"command": command},
	}

	bin := strings.Fields(command)[0]
	if _, err := exec.LookPath(bin); err != nil {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("editor %q not found", bin)
		result.FixHint = "Set $EDITOR to an installed editor"
		return result
	}

	result.Status = SeverityPass
	result.Message = "editor " + bin + " available"
	return result
}

// groupOtherWrite are the permission bits doctor --fix clears.
const groupOtherWrite os.FileMode = 0o022

// FileCheck inspects one managed config file: that it parses, that only its
// owner can write it, and that its backups are within the retention count.
type FileCheck struct {
	path      string
	fileType  string
	retention int

	PermissionFixer
}

var (
	_ Check = (*FileCheck)(nil)
	_ Fixer = (*FileCheck)(nil)
)

// NewFileCheck creates a check for the config at path. fileType overrides
// the extension; retention of zero skips the backup count.
func NewFileCheck(path, fileType string, retention int) *FileCheck {
	return &FileCheck{path: path, fileType: fileType, retention: retention}
}

// Name returns the unique identifier for this check.
func (c *FileCheck) Name() string { return "file:" + c.path }

// Category returns the grouping for this check.
func (c *FileCheck) Category() string { return "file" }

// Run executes the check.
func (c *FileCheck) Run() *CheckResult {
	c.setIssues(nil)
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{},
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityWarning
		result.Message = "file does not exist"
		result.FixHint = "confkeep check will create it from the reference"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = "cannot stat file: " + err.Error()
		return result
	case info.IsDir():
		result.Status = SeverityError
		result.Message = "path is a directory"
		return result
	}

	result.Details["mode"] = info.Mode().Perm().String()

	if _, err := store.Parse(c.path, c.fileType); err != nil {
		result.Status = SeverityError
		if errors.Is(err, errors.ErrUnsupportedFormat) {
			result.Message = "unsupported file type"
			result.FixHint = "Pass --type toml, ini or yaml"
		} else {
			result.Message = "file does not parse"
			result.FixHint = "confkeep backup restore " + c.path
		}
		result.Details["error"] = err.Error()
		return result
	}

	var problems []string
	result.Status = SeverityPass

	if perm := info.Mode().Perm(); perm&groupOtherWrite != 0 {
		c.setIssues([]permIssue{{Path: c.path, Mode: perm, Target: perm &^ groupOtherWrite}})
		problems = append(problems, fmt.Sprintf("writable by group or others (%04o)", perm))
		result.Status = SeverityWarning
		result.Fixable = true
		result.FixHint = "Run 'confkeep doctor --fix' to clear the write bits"
	}

	if c.retention > 0 {
		records, err := backup.NewManager().List(c.path)
		if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
			problems = append(problems, "cannot list backups: "+err.Error())
			result.Status = max(result.Status, SeverityWarning)
		}
		result.Details["backups"] = len(records)
		if len(records) > c.retention {
			problems = append(problems, fmt.Sprintf("%d backups, retention is %d", len(records), c.retention))
			result.Status = max(result.Status, SeverityInfo)
			if result.FixHint == "" {
				result.FixHint = "Run 'confkeep backup prune " + c.path + "'"
			}
		}
	}

	if len(problems) == 0 {
		result.Message = "file parses"
	} else {
		result.Message = strings.Join(problems, "; ")
	}
	return result
}
