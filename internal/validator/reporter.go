package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// Format specifies the output format for validation reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Reporter formats and writes validation results.
type Reporter struct {
	out    io.Writer
	format Format
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// report is the JSON envelope written by FormatJSON.
type report struct {
	Path     string    `json:"path"`
	Level    string    `json:"check_level"`
	Fatal    bool      `json:"fatal"`
	Findings []Finding `json:"findings"`
}

// Report writes the findings for the config at path.
func (r *Reporter) Report(path string, level CheckLevel, result *Result) error {
	if result == nil {
		result = &Result{}
	}

	switch r.format {
	case FormatJSON:
		return r.reportJSON(path, level, result)
	default:
		return r.reportText(path, level, result)
	}
}

func (r *Reporter) reportJSON(path string, level CheckLevel, result *Result) error {
	findings := result.Findings
	if findings == nil {
		findings = []Finding{}
	}
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(report{
		Path:     path,
		Level:    level.String(),
		Fatal:    result.Fatal,
		Findings: findings,
	}), "encoding JSON report")
}

// reportText renders the whole report before writing it, so a failed write
// is reported once.
func (r *Reporter) reportText(path string, level CheckLevel, result *Result) error {
	var b strings.Builder
	if len(result.Findings) == 0 {
		fmt.Fprintf(&b, "%s %s (level %s)\n", color.GreenString("✓ Validation passed:"), path, level)
		return r.write(b.String())
	}

	errs := result.Errors()
	warnings := result.Warnings()

	summary := []string{}
	if len(errs) > 0 {
		summary = append(summary, color.RedString("%d error(s)", len(errs)))
	}
	if len(warnings) > 0 {
		summary = append(summary, color.YellowString("%d warning(s)", len(warnings)))
	}
	heading := "Validation findings"
	if result.Fatal {
		heading = "Validation failed"
	}
	fmt.Fprintf(&b, "%s for %s (level %s): %s\n\n", heading, path, level, strings.Join(summary, ", "))

	if len(errs) > 0 {
		fmt.Fprintln(&b, "Errors:")
		for _, f := range errs {
			printFinding(&b, f, color.FgRed)
		}
		fmt.Fprintln(&b)
	}

	if len(warnings) > 0 {
		fmt.Fprintln(&b, "Warnings:")
		for _, f := range warnings {
			printFinding(&b, f, color.FgYellow)
		}
		fmt.Fprintln(&b)
	}

	return r.write(b.String())
}

func (r *Reporter) write(s string) error {
	_, err := io.WriteString(r.out, s)
	return errors.Wrap(err, "writing report")
}

func printFinding(b *strings.Builder, f Finding, c color.Attribute) {
	printer := color.New(c).SprintFunc()

	// Format:  • field: message (kind) [expected → got]
	var sb strings.Builder
	sb.WriteString("  • ")
	sb.WriteString(printer(f.Field))
	sb.WriteString(": ")
	sb.WriteString(f.Message)
	sb.WriteString(" ")
	sb.WriteString(color.New(color.FgHiBlack).Sprintf("(%s)", f.Kind))

	if f.Expected != "" {
		sb.WriteString(color.New(color.FgHiBlack).Sprintf(" [expected %s, got %s]", f.Expected, f.Got))
	}

	fmt.Fprintln(b, sb.String())
}
