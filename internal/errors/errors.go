package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid config, bad level, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, network, permissions, etc.).
	ExitSystem = 2
)

// Error kinds. Concrete errors are marked with one of these via [Mark] so
// callers can classify them with [Is] regardless of how they were wrapped.
var (
	// ErrFormat indicates malformed bytes on decode or an unrepresentable
	// value on encode.
	ErrFormat = crdb.New("format error")

	// ErrUnsupportedFormat indicates no codec exists for a file type.
	// Errors carrying it are also marked ErrFormat.
	ErrUnsupportedFormat = crdb.New("unsupported config file type")

	// ErrReferenceUnavailable indicates the reference config could not be
	// obtained from its local path or URL.
	ErrReferenceUnavailable = crdb.New("reference config unavailable")

	// ErrValidation indicates a field or type policy violation that the
	// check level treats as fatal.
	ErrValidation = crdb.New("config validation failed")

	// ErrPersist indicates the config or one of its backups could not be written.
	ErrPersist = crdb.New("persisting config failed")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = crdb.New("resource not found")

	// ErrInvalidCheckLevel indicates a malformed check level code.
	ErrInvalidCheckLevel = crdb.New("invalid check level")
)

// Thin forwards to github.com/cockroachdb/errors so packages can import a
// single errors package.
var (
	New    = crdb.New
	Newf   = crdb.Newf
	Wrap   = crdb.Wrap
	Wrapf  = crdb.Wrapf
	Is     = crdb.Is
	As     = crdb.As
	Mark   = crdb.Mark
	Unwrap = crdb.Unwrap

	CombineErrors = crdb.CombineErrors
)

// MarkFormat wraps err with msg and marks it as a format error.
func MarkFormat(err error, msg string) error {
	return crdb.Mark(crdb.Wrap(err, msg), ErrFormat)
}

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// Classify converts a pipeline error into an ExitError with a code and
// suggestion matching its kind. Nil stays nil and existing ExitErrors are
// returned as-is.
func Classify(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr
	}
	switch {
	case crdb.Is(err, ErrValidation):
		return NewUserError(err, "Fix the reported fields or lower the check level")
	case crdb.Is(err, ErrUnsupportedFormat):
		return NewUserError(err, "Use a .toml, .ini, .yaml or .yml file, or pass --type")
	case crdb.Is(err, ErrFormat):
		return NewUserError(err, "Check the file for syntax errors")
	case crdb.Is(err, ErrInvalidCheckLevel):
		return NewUserError(err, "The check level is four digits, e.g. 1111")
	case crdb.Is(err, ErrReferenceUnavailable):
		return NewSystemError(err, "Check that --recover-path exists or is reachable")
	case crdb.Is(err, ErrPersist):
		return NewSystemError(err, "Check permissions on the config file and its directory")
	default:
		return NewExitError(err, ExitSystem)
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
