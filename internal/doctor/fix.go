package doctor

import (
	"fmt"
	"os"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// Fixer is an optional interface that checks can implement to support
// auto-remediation with doctor --fix.
type Fixer interface {
	// CanFix returns true if this check has fixable issues.
	// Must be called after Run().
	CanFix() bool

	// Fix attempts to remediate the issues found by Run().
	Fix() []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	// Path is the file that was targeted for fixing.
	Path string `json:"path"`

	// Fixed indicates whether the fix was successfully applied.
	Fixed bool `json:"fixed"`

	// Description explains what was fixed or why it couldn't be fixed.
	Description string `json:"description"`

	// Error contains the error if the fix failed.
	Error error `json:"-"`
}

type permIssue struct {
	Path   string
	Mode   os.FileMode
	Target os.FileMode
}

// PermissionFixer clears unsafe permission bits found by a check.
type PermissionFixer struct {
	issues []permIssue
}

// CanFix returns true if there are any permission issues.
func (f *PermissionFixer) CanFix() bool {
	return len(f.issues) > 0
}

// Fix chmods every recorded path to its target mode.
func (f *PermissionFixer) Fix() []FixResult {
	results := make([]FixResult, 0, len(f.issues))
	for _, issue := range f.issues {
		result := FixResult{Path: issue.Path}
		if err := os.Chmod(issue.Path, issue.Target); err != nil {
			result.Description = fmt.Sprintf("failed to chmod %04o: %v", issue.Target, err)
			result.Error = errors.Wrapf(err, "chmod %04o %s", issue.Target, issue.Path)
		} else {
			result.Fixed = true
			result.Description = fmt.Sprintf("chmod %04o", issue.Target)
		}
		results = append(results, result)
	}
	return results
}

func (f *PermissionFixer) setIssues(issues []permIssue) {
	f.issues = issues
}
