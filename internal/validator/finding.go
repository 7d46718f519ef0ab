package validator

import (
	"fmt"
	"strings"
)

// Severity represents the impact of a finding.
type Severity int

const (
	// SeverityError indicates a violation the check level treats as fatal.
	SeverityError Severity = iota
	// SeverityWarning indicates a violation that was logged or corrected.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Kind classifies a discrepancy between a config and its reference.
type Kind int

const (
	// MissingField is a reference key absent from the config.
	MissingField Kind = iota
	// ExtraField is a config key absent from the reference.
	ExtraField
	// TypeMismatch is a key whose value kind differs from the reference.
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case ExtraField:
		return "extra_field"
	case TypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Finding is one discrepancy detected by a validation pass.
type Finding struct {
	Field    string   `json:"field"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Expected and Got name the value kinds of a TypeMismatch.
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// Error implements the error interface.
func (f Finding) Error() string {
	var sb strings.Builder
	sb.WriteString(f.Severity.String())
	sb.WriteString(": field \"")
	sb.WriteString(f.Field)
	sb.WriteString("\": ")
	sb.WriteString(f.Message)
	if f.Expected != "" {
		fmt.Fprintf(&sb, " (expected %s, got %s)", f.Expected, f.Got)
	}
	return sb.String()
}

// Error is returned when a fatal check level rejects a config.
// It matches errors.ErrValidation.
type Error struct {
	Findings []Finding
}

func (e *Error) Error() string {
	if len(e.Findings) == 1 {
		return "config validation failed: " + e.Findings[0].Error()
	}
	parts := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("config validation failed with %d errors: %s",
		len(e.Findings), strings.Join(parts, "; "))
}
