package validator

import (
	"fmt"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// ErrorMode is the first check level digit: whether violations are fatal.
type ErrorMode int

const (
	// ErrorsSkip disables validation entirely.
	ErrorsSkip ErrorMode = iota
	// ErrorsWarn validates but only logs violations.
	ErrorsWarn
	// ErrorsFatal fails the load on any fatal violation.
	ErrorsFatal
)

// TypeMode is the second digit: how value type mismatches are handled.
type TypeMode int

const (
	// TypesOff skips type checking.
	TypesOff TypeMode = iota
	// TypesCoerce replaces mismatched values with the reference value.
	TypesCoerce
	// TypesStrict reports mismatches as fatal.
	TypesStrict
)

// FieldMode is the third digit: how missing and extra keys are handled.
type FieldMode int

const (
	// FieldsOff skips field checking.
	FieldsOff FieldMode = iota
	// FieldsFillAllowExtra fills missing keys and keeps extra ones.
	FieldsFillAllowExtra
	// FieldsStrict reports missing keys as fatal.
	FieldsStrict
	// FieldsFillRejectExtra fills missing keys and removes extra ones.
	FieldsFillRejectExtra
)

// RecoveryMode is the fourth digit: what gets persisted after validation.
type RecoveryMode int

const (
	// RecoverNone keeps the file as loaded.
	RecoverNone RecoveryMode = iota
	// RecoverPatch backs up the file and persists the corrected mapping.
	RecoverPatch
	// RecoverReplace backs up the file and persists the reference mapping.
	RecoverReplace
)

// CheckLevel is the parsed form of a four digit check level code such as "1111".
type CheckLevel struct {
	Errors   ErrorMode
	Types    TypeMode
	Fields   FieldMode
	Recovery RecoveryMode
}

// DefaultCheckLevel is used when no level is configured.
var DefaultCheckLevel = CheckLevel{
	Errors:   ErrorsWarn,
	Types:    TypesCoerce,
	Fields:   FieldsFillAllowExtra,
	Recovery: RecoverPatch,
}

// maxDigits holds the largest legal value of each digit.
var maxDigits = [4]int{2, 2, 3, 2}

// ParseCheckLevel parses a four digit code. An empty string yields
// DefaultCheckLevel.
func ParseCheckLevel(s string) (CheckLevel, error) {
	if s == "" {
		return DefaultCheckLevel, nil
	}
	if len(s) != 4 {
		return CheckLevel{}, errors.Mark(
			errors.Newf("check level %q must be exactly four digits", s), errors.ErrInvalidCheckLevel)
	}

	var d [4]int
	for i := range 4 {
		c := s[i]
		if c < '0' || c > '9' {
			return CheckLevel{}, errors.Mark(
				errors.Newf("check level %q: %q is not a digit", s, c), errors.ErrInvalidCheckLevel)
		}
		d[i] = int(c - '0')
		if d[i] > maxDigits[i] {
			return CheckLevel{}, errors.Mark(
				errors.Newf("check level %q: digit %d must be at most %d", s, i+1, maxDigits[i]),
				errors.ErrInvalidCheckLevel)
		}
	}

	return CheckLevel{
		Errors:   ErrorMode(d[0]),
		Types:    TypeMode(d[1]),
		Fields:   FieldMode(d[2]),
		Recovery: RecoveryMode(d[3]),
	}, nil
}

// MustParseCheckLevel is like ParseCheckLevel but panics on error.
func MustParseCheckLevel(s string) CheckLevel {
	l, err := ParseCheckLevel(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the four digit code.
func (l CheckLevel) String() string {
	return fmt.Sprintf("%d%d%d%d", l.Errors, l.Types, l.Fields, l.Recovery)
}

// Enabled reports whether validation runs at all.
func (l CheckLevel) Enabled() bool {
	return l.Errors != ErrorsSkip
}

// fillsMissing reports whether absent reference keys are filled in.
func (m FieldMode) fillsMissing() bool {
	return m == FieldsFillAllowExtra || m == FieldsFillRejectExtra
}
