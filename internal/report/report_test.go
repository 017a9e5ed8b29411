// Where: internal/report/report_test.go
// What: Tests for result aggregation and report rendering.
// Why: Exit code propagation is the run's public contract.
package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sampleResults() Results {
	started := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return Results{
		Started:  started,
		Finished: started.Add(90 * time.Second),
		Envs: []EnvResult{
			{Name: "py39-django32", Status: StatusPassed, Duration: 40 * time.Second},
			{Name: "py39-django40", Status: StatusFailed, ExitCode: 3, Duration: 30 * time.Second},
			{Name: "py311", Status: StatusError, Message: "interpreter \"python3.11\" not found", Duration: time.Second},
		},
	}
}

func TestExitCodePropagation(t *testing.T) {
	r := sampleResults()
	if r.OK() {
		t.Fatal("results with failures should not be OK")
	}
	if got := r.ExitCode(); got != 3 {
		t.Fatalf("exit code: got %d, want 3", got)
	}

	allGreen := Results{Envs: []EnvResult{
		{Name: "py39", Status: StatusPassed},
		{Name: "py310", Status: StatusSkipped, Message: "filtered"},
	}}
	if !allGreen.OK() {
		t.Fatal("passed+skipped should be OK")
	}
	if allGreen.ExitCode() != 0 {
		t.Fatalf("exit code: got %d", allGreen.ExitCode())
	}

	errOnly := Results{Envs: []EnvResult{{Name: "py39", Status: StatusError}}}
	if errOnly.ExitCode() != 1 {
		t.Fatalf("error exit code: got %d", errOnly.ExitCode())
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	PrintSummary(&out, sampleResults())
	text := out.String()
	for _, want := range []string{"py39-django32", "passed", "failed", "exit code 3", "some environments failed"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestRenderReport(t *testing.T) {
	payload, err := Render(sampleResults())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := string(payload)
	for _, want := range []string{
		"# Test matrix run",
		"| py39-django32 | PASSED | 0 |",
		"| py39-django40 | FAILED | 3 |",
		"3 environments, 2 failed.",
		"interpreter \"python3.11\" not found",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}
