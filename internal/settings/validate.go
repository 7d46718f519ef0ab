package settings

import (
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/validator"
)

// Validation errors for settings fields.
var (
	// ErrNonPositiveTimeout indicates fetch_timeout is zero or negative.
	ErrNonPositiveTimeout = errors.New("must be positive")

	// ErrNegativeRetention indicates backup_retention is below zero.
	ErrNegativeRetention = errors.New("must not be negative")

	// ErrUnknownLogFormat indicates log_format is not text or json.
	ErrUnknownLogFormat = errors.New("must be text or json")
)

// Validate checks s for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(s *Settings) []error {
	if s == nil {
		return []error{errors.New("settings are nil")}
	}

	var errs []error

	if _, err := validator.ParseCheckLevel(s.CheckLevel); err != nil {
		errs = append(errs, &FieldError{Field: "check_level", Err: err})
	}

	if s.FetchTimeout <= 0 {
		errs = append(errs, &FieldError{Field: "fetch_timeout", Err: ErrNonPositiveTimeout})
	}

	if s.BackupRetention < 0 {
		errs = append(errs, &FieldError{Field: "backup_retention", Err: ErrNegativeRetention})
	}

	if _, err := logging.ParseFormat(s.LogFormat); err != nil {
		errs = append(errs, &FieldError{Field: "log_format", Err: errors.Mark(err, ErrUnknownLogFormat)})
	}

	return errs
}

// FieldError represents an error for a specific settings field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
