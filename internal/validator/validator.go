// Package validator checks a config mapping against a reference mapping.
package validator

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// Result is the outcome of one validation pass.
type Result struct {
	// Mapping is the config after field and type corrections. When
	// validation is skipped it is the input mapping itself.
	Mapping *confmap.Mapping `json:"-"`
	// Findings lists discrepancies in reference key order.
	Findings []Finding `json:"findings"`
	// Fatal is set only when the error mode is ErrorsFatal and at least one
	// finding has SeverityError.
	Fatal bool `json:"fatal"`
}

// HasErrors returns true if any finding has SeverityError.
func (r *Result) HasErrors() bool {
	return len(r.Errors()) > 0
}

// HasWarnings returns true if any finding has SeverityWarning.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

// Errors returns all findings with SeverityError.
func (r *Result) Errors() []Finding {
	return r.bySeverity(SeverityError)
}

// Warnings returns all findings with SeverityWarning.
func (r *Result) Warnings() []Finding {
	return r.bySeverity(SeverityWarning)
}

func (r *Result) bySeverity(s Severity) []Finding {
	if r == nil {
		return nil
	}
	var res []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			res = append(res, f)
		}
	}
	return res
}

// Err returns a *Error listing the fatal findings, or nil when the result is
// not fatal.
func (r *Result) Err() error {
	if r == nil || !r.Fatal {
		return nil
	}
	return &Error{Findings: r.Errors()}
}

// Is reports whether target is errors.ErrValidation.
func (e *Error) Is(target error) bool {
	return target == errors.ErrValidation
}

// Validate applies the field and type policies of level to current using
// reference as the source of truth. Neither input is modified. A nil or empty
// reference produces no findings.
//
// Missing keys are handled before extra keys, and the field pass runs before
// the type pass, so a key filled from the reference is never reported as a
// type mismatch.
func Validate(current, reference *confmap.Mapping, level CheckLevel) *Result {
	if !level.Enabled() {
		return &Result{Mapping: current}
	}
	work := current.Clone()
	if reference.Len() == 0 {
		// No reference means nothing can be missing, extra or mistyped.
		return &Result{Mapping: work}
	}

	res := &Result{Mapping: work}

	if level.Fields != FieldsOff {
		checkFields(work, reference, level.Fields, res)
	}
	if level.Types != TypesOff {
		checkTypes(work, reference, level.Types, res)
	}

	if level.Errors == ErrorsFatal {
		res.Fatal = res.HasErrors()
	} else {
		for i := range res.Findings {
			res.Findings[i].Severity = SeverityWarning
		}
	}
	return res
}

func checkFields(work, reference *confmap.Mapping, mode FieldMode, res *Result) {
	for _, key := range reference.Keys() {
		if work.Has(key) {
			continue
		}
		if mode == FieldsStrict {
			res.Findings = append(res.Findings, Finding{
				Field:    key,
				Kind:     MissingField,
				Severity: SeverityError,
				Message:  "required field is missing",
			})
			continue
		}
		v, _ := reference.Get(key)
		work.Set(key, v.Clone())
		res.Findings = append(res.Findings, Finding{
			Field:    key,
			Kind:     MissingField,
			Severity: SeverityWarning,
			Message:  "missing field, using default value",
		})
	}

	if !mode.fillsMissing() {
		return
	}
	for _, key := range work.Keys() {
		if reference.Has(key) {
			continue
		}
		msg := "extra field found"
		if mode == FieldsFillRejectExtra {
			work.Delete(key)
			msg = "extra field removed"
		}
		res.Findings = append(res.Findings, Finding{
			Field:    key,
			Kind:     ExtraField,
			Severity: SeverityWarning,
			Message:  msg,
		})
	}
}

func checkTypes(work, reference *confmap.Mapping, mode TypeMode, res *Result) {
	for _, key := range reference.Keys() {
		got, ok := work.Get(key)
		if !ok {
			continue
		}
		want, _ := reference.Get(key)
		if got.Kind() == want.Kind() {
			continue
		}

		f := Finding{
			Field:    key,
			Kind:     TypeMismatch,
			Expected: want.Kind().String(),
			Got:      got.Kind().String(),
		}
		if mode == TypesStrict {
			f.Severity = SeverityError
			f.Message = "incorrect type"
		} else {
			work.Set(key, want.Clone())
			f.Severity = SeverityWarning
			f.Message = "incorrect type, using default value"
		}
		res.Findings = append(res.Findings, f)
	}
}

// LogFindings writes one record per finding: errors at Error level,
// everything else at Warn.
func LogFindings(logger *slog.Logger, findings []Finding) {
	for _, f := range findings {
		level := slog.LevelWarn
		if f.Severity == SeverityError {
			level = slog.LevelError
		}
		attrs := []any{"field", f.Field, "kind", f.Kind.String()}
		if f.Expected != "" {
			attrs = append(attrs, "expected", f.Expected, "got", f.Got)
		}
		logger.Log(context.Background(), level, f.Message, attrs...)
	}
}
