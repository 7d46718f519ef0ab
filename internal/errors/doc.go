// Package errors provides error handling conventions for confkeep.
//
// This package defines the error kinds surfaced by the load, validate,
// recover and persist pipeline, an ExitError type for CLI exit code
// handling, and forwards to github.com/cockroachdb/errors for wrapping.
//
// # Error Kinds
//
// Every failure the pipeline surfaces is marked with one kind so callers
// can branch with [Is] no matter how deeply the error was wrapped:
//
//	if errors.Is(err, cferrors.ErrValidation) {
//		// a fatal check level rejected the file
//	}
//
//   - ErrFormat: malformed bytes or an unrepresentable value
//   - ErrUnsupportedFormat: no codec for the file type (also ErrFormat)
//   - ErrReferenceUnavailable: the reference config could not be loaded
//   - ErrValidation: a fatal field or type violation
//   - ErrPersist: writing the config or a backup failed
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid config, bad check level)
//   - ExitSystem (2): System-related error (I/O, network, permissions)
//
// Use [Classify] to turn any pipeline error into an [ExitError]:
//
//	if exitErr := cferrors.Classify(err); exitErr != nil {
//		fmt.Fprintln(os.Stderr, exitErr.Suggestion)
//		os.Exit(exitErr.Code)
//	}
package errors
