package doctor

import "time"

// Check is one diagnostic. Checks that can repair what they find also
// implement Fixer.
type Check interface {
	Name() string
	// Category groups results in the report, e.g. "settings" or "file".
	Category() string
	Run() *CheckResult
}

// Runner runs checks in registration order.
type Runner struct {
	checks []Check
}

// NewRunner returns a Runner with no checks.
func NewRunner() *Runner {
	return &Runner{}
}

// AddCheck appends c to the checks to run.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run executes every check once. Running again after fixes gives a fresh
// report.
func (r *Runner) Run() *Report {
	report := &Report{Timestamp: time.Now().UTC()}
	for _, c := range r.checks {
		res := c.Run()
		report.Results = append(report.Results, res)
		report.Summary.add(res.Status)
	}
	return report
}

// Report is the outcome of one Runner.Run.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors reports whether any check ended in SeverityError.
func (r *Report) HasErrors() bool { return r.Summary.Errors > 0 }

// HasWarnings reports whether any check ended in SeverityWarning.
func (r *Report) HasWarnings() bool { return r.Summary.Warnings > 0 }

func (s *Summary) add(sev Severity) {
	switch sev {
	case SeverityPass:
		s.Passed++
	case SeverityInfo:
		s.Info++
	case SeverityWarning:
		s.Warnings++
	case SeverityError:
		s.Errors++
	}
}
