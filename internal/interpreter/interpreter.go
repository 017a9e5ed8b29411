// Where: internal/interpreter/interpreter.go
// What: Base interpreter discovery.
// Why: Map matrix selectors to concrete executables before provisioning.
package interpreter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/envmatrix/emx/internal/runner"
)

// Interpreter is a discovered executable for a base selector.
type Interpreter struct {
	Selector string
	Path     string
	Version  string
}

// Locator abstracts executable lookup so discovery is testable without a
// populated PATH.
type Locator interface {
	LookPath(name string) (string, error)
}

// ExecLocator locates executables through the host PATH.
type ExecLocator struct{}

func (ExecLocator) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Discovery resolves selectors to interpreters, consulting a cache of
// previous results (persisted in the global config between runs).
// Safe for concurrent use when environments run in parallel.
type Discovery struct {
	Locator Locator
	Runner  runner.CommandRunner
	Cache   map[string]string

	mu sync.Mutex
}

// Find resolves a selector. Absolute selectors are used as-is; cached
// paths are revalidated before reuse. The interpreter version is probed
// with `--version` when a runner is available.
func (d *Discovery) Find(ctx context.Context, selector string) (Interpreter, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return Interpreter{}, fmt.Errorf("empty interpreter selector")
	}

	path, err := d.locate(selector)
	if err != nil {
		return Interpreter{}, err
	}

	interp := Interpreter{Selector: selector, Path: path}
	if d.Runner != nil {
		interp.Version = d.probeVersion(ctx, path)
	}
	if d.Cache != nil {
		d.mu.Lock()
		d.Cache[selector] = path
		d.mu.Unlock()
	}
	return interp, nil
}

func (d *Discovery) locate(selector string) (string, error) {
	if filepath.IsAbs(selector) {
		if _, err := os.Stat(selector); err != nil {
			return "", fmt.Errorf("interpreter %s: %w", selector, err)
		}
		return selector, nil
	}

	d.mu.Lock()
	cached, ok := d.Cache[selector]
	d.mu.Unlock()
	if ok {
		if _, err := os.Stat(cached); err == nil {
			return cached, nil
		}
		d.mu.Lock()
		delete(d.Cache, selector)
		d.mu.Unlock()
	}

	locator := d.Locator
	if locator == nil {
		locator = ExecLocator{}
	}
	path, err := locator.LookPath(selector)
	if err != nil {
		return "", fmt.Errorf("interpreter %q not found: %w", selector, err)
	}
	return path, nil
}

// probeVersion runs `<path> --version` and returns the trimmed first line.
// Version output is informational; probe failures leave it empty.
func (d *Discovery) probeVersion(ctx context.Context, path string) string {
	out, err := d.Runner.Output(ctx, runner.Command{Argv: []string{path, "--version"}})
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	return line
}
