// Where: internal/report/report.go
// What: Run result aggregation and console summary.
// Why: One line per environment, one exit code for the whole run.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Status of one environment run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// EnvResult is the outcome of one environment.
type EnvResult struct {
	Name     string
	Status   Status
	ExitCode int
	Duration time.Duration
	Message  string
}

// Results collects every environment outcome of a run.
type Results struct {
	Started  time.Time
	Finished time.Time
	Envs     []EnvResult
}

// OK reports whether every environment passed or was skipped.
func (r Results) OK() bool {
	for _, env := range r.Envs {
		if env.Status == StatusFailed || env.Status == StatusError {
			return false
		}
	}
	return true
}

// ExitCode returns the run's exit code: 0 when everything passed,
// otherwise the first failing environment's subprocess exit code
// (1 for provisioning or spawn errors).
func (r Results) ExitCode() int {
	for _, env := range r.Envs {
		switch env.Status {
		case StatusFailed:
			if env.ExitCode != 0 {
				return env.ExitCode
			}
			return 1
		case StatusError:
			return 1
		}
	}
	return 0
}

var (
	passedLabel  = color.New(color.FgGreen).SprintFunc()
	failedLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	skippedLabel = color.New(color.FgYellow).SprintFunc()
)

// PrintSummary writes the per-environment summary table.
func PrintSummary(out io.Writer, r Results) {
	fmt.Fprintln(out)
	for _, env := range r.Envs {
		label := passedLabel("passed")
		detail := ""
		switch env.Status {
		case StatusFailed:
			label = failedLabel("failed")
			detail = fmt.Sprintf(" (exit code %d)", env.ExitCode)
		case StatusError:
			label = failedLabel("error")
			detail = " (" + env.Message + ")"
		case StatusSkipped:
			label = skippedLabel("skipped")
			if env.Message != "" {
				detail = " (" + env.Message + ")"
			}
		}
		fmt.Fprintf(out, "  %-24s %s%s  [%s]\n", env.Name, label, detail, env.Duration.Round(time.Millisecond))
	}

	fmt.Fprintln(out)
	if r.OK() {
		fmt.Fprintf(out, "%s (%d environments in %s)\n",
			passedLabel("congratulations :)"), len(r.Envs), r.Finished.Sub(r.Started).Round(time.Millisecond))
	} else {
		fmt.Fprintf(out, "%s (exit code %d)\n", failedLabel("some environments failed"), r.ExitCode())
	}
}
