// Where: internal/runner/runner_test.go
// What: Tests for subprocess execution.
// Why: Exit codes and working directories must pass through untouched.
package runner

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func TestExecRunnerRun(t *testing.T) {
	skipWithoutShell(t)

	var out bytes.Buffer
	code, err := ExecRunner{}.Run(context.Background(), Command{
		Argv: []string{"/bin/sh", "-c", "echo hello"},
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if strings.TrimSpace(out.String()) != "hello" {
		t.Fatalf("output: %q", out.String())
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	skipWithoutShell(t)

	var out bytes.Buffer
	code, err := ExecRunner{}.Run(context.Background(), Command{
		Argv: []string{"/bin/sh", "-c", "exit 3"},
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code: got %d, want 3", code)
	}
}

func TestExecRunnerDirAndEnv(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	var out bytes.Buffer
	code, err := ExecRunner{}.Run(context.Background(), Command{
		Argv: []string{"/bin/sh", "-c", "pwd; echo $MARKER"},
		Dir:  dir,
		Env:  []string{"PATH=/usr/bin:/bin", "MARKER=present"},
	}, &out)
	if err != nil || code != 0 {
		t.Fatalf("run: code=%d err=%v", code, err)
	}
	text := out.String()
	if !strings.Contains(text, dir) {
		t.Fatalf("working directory not honored: %q", text)
	}
	if !strings.Contains(text, "present") {
		t.Fatalf("environment not honored: %q", text)
	}
}

func TestExecRunnerSpawnFailure(t *testing.T) {
	var out bytes.Buffer
	_, err := ExecRunner{}.Run(context.Background(), Command{
		Argv: []string{"/nonexistent-binary-emx"},
	}, &out)
	if err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestExecRunnerOutput(t *testing.T) {
	skipWithoutShell(t)

	out, err := ExecRunner{}.Output(context.Background(), Command{
		Argv: []string{"/bin/sh", "-c", "echo captured"},
	})
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if strings.TrimSpace(string(out)) != "captured" {
		t.Fatalf("got %q", out)
	}
}

func TestEcho(t *testing.T) {
	got := Echo([]string{"pytest", "-k", "not slow"})
	if got != "pytest -k 'not slow'" {
		t.Fatalf("got %q", got)
	}
}
