// Package diff renders line diffs between two versions of a config file.
package diff

import (
	"bytes"

	"github.com/pmezard/go-difflib/difflib"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

// Unified returns a unified diff from a to b, or "" when they are equal.
func Unified(fromName, toName string, a, b []byte) string {
	if bytes.Equal(a, b) {
		return ""
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  Context,
	})
	if err != nil {
		// Only write errors are returned.
		return ""
	}
	return text
}
