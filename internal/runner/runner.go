// Where: internal/runner/runner.go
// What: Subprocess execution helpers.
// Why: Provide a minimal, testable interface for spawning environment commands.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
)

// Command is one subprocess invocation: argv plus its working directory
// and fully merged environment.
type Command struct {
	Argv []string
	Dir  string
	Env  []string
}

// CommandRunner defines the interface for executing environment commands.
// Exit codes pass through untouched; everything else about the invoked
// tool is opaque.
type CommandRunner interface {
	// Run executes the command, streaming combined output to out.
	// Returns the exit code and an error for spawn failures.
	Run(ctx context.Context, cmd Command, out io.Writer) (int, error)
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// Run executes a command with stdout and stderr joined into out.
func (ExecRunner) Run(ctx context.Context, cmd Command, out io.Writer) (int, error) {
	if len(cmd.Argv) == 0 {
		return -1, fmt.Errorf("empty command")
	}
	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = out
	c.Stderr = out

	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run %s: %w", cmd.Argv[0], err)
}

// Output executes a command and returns its stdout. Stderr is folded into
// the error on failure.
func (ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	if len(cmd.Argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stderr bytes.Buffer
	c.Stderr = &stderr
	out, err := c.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", cmd.Argv[0], err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", cmd.Argv[0], err)
	}
	return out, nil
}

// Echo renders a command line the way a shell user would retype it.
func Echo(argv []string) string {
	return shellescape.QuoteCommand(argv)
}
