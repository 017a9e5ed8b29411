// Where: internal/provisioner/provisioner.go
// What: Per-environment provisioning.
// Why: Each matrix entry gets an isolated interpreter environment with its declared deps.
package provisioner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/envmatrix/emx/internal/interpreter"
	"github.com/envmatrix/emx/internal/matrix"
	"github.com/envmatrix/emx/internal/meta"
	"github.com/envmatrix/emx/internal/runner"
	"github.com/envmatrix/emx/internal/state"
)

// Provisioner creates and refreshes environment directories. A provision
// is skipped when the recorded fingerprint still matches the desired one.
type Provisioner struct {
	Runner    runner.CommandRunner
	Discovery *interpreter.Discovery
	Out       io.Writer
	Now       func() time.Time
}

// Result describes the provisioned environment an entry will run in.
type Result struct {
	Interpreter interpreter.Interpreter
	EnvDir      string
	VenvDir     string
	PythonBin   string
	Skipped     bool
}

// Ensure provisions the environment for def, creating the virtual
// environment and installing dependencies when needed.
func (p *Provisioner) Ensure(ctx context.Context, def matrix.EnvDefinition) (Result, error) {
	if p.Runner == nil {
		return Result{}, fmt.Errorf("provisioner has no runner")
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	discovery := p.Discovery
	if discovery == nil {
		discovery = &interpreter.Discovery{Runner: p.Runner}
	}

	interp, err := discovery.Find(ctx, def.Interpreter)
	if err != nil {
		return Result{}, err
	}

	venvDir := filepath.Join(def.EnvDir, meta.VenvDir)
	result := Result{
		Interpreter: interp,
		EnvDir:      def.EnvDir,
		VenvDir:     venvDir,
		PythonBin:   PythonBin(venvDir),
	}

	deps := make([]string, 0, len(def.Deps))
	for _, dep := range def.Deps {
		deps = append(deps, dep.String())
	}

	fingerprint := state.Fingerprint(interp.Path, deps)
	if state.Derive(def.EnvDir, fingerprint) == state.StateReady && fileExists(result.PythonBin) {
		result.Skipped = true
		return result, nil
	}

	fmt.Fprintf(out, "%s: creating environment (%s)\n", def.Name, interp.Path)
	if err := p.createVenv(ctx, interp.Path, venvDir, out); err != nil {
		return Result{}, err
	}

	if len(deps) > 0 {
		fmt.Fprintf(out, "%s: installing %d dependencies\n", def.Name, len(deps))
		if err := p.installDeps(ctx, result.PythonBin, deps, out); err != nil {
			return Result{}, err
		}
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}
	record := state.ProvisionRecord{
		Fingerprint:     fingerprint,
		Interpreter:     def.Interpreter,
		InterpreterPath: interp.Path,
		Deps:            deps,
		ProvisionedAt:   now().UTC(),
	}
	if err := state.SaveRecord(def.EnvDir, record); err != nil {
		return Result{}, fmt.Errorf("save provision record: %w", err)
	}
	return result, nil
}

func (p *Provisioner) createVenv(ctx context.Context, interpreterPath, venvDir string, out io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(venvDir), 0o755); err != nil {
		return err
	}
	cmd := runner.Command{Argv: []string{interpreterPath, "-m", "venv", "--clear", venvDir}}
	code, err := p.Runner.Run(ctx, cmd, out)
	if err != nil {
		return fmt.Errorf("create venv: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("create venv: %s exited with code %d", interpreterPath, code)
	}
	return nil
}

func (p *Provisioner) installDeps(ctx context.Context, pythonBin string, deps []string, out io.Writer) error {
	argv := append([]string{pythonBin, "-m", "pip", "install"}, deps...)
	code, err := p.Runner.Run(ctx, runner.Command{Argv: argv}, out)
	if err != nil {
		return fmt.Errorf("install dependencies: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("install dependencies: pip exited with code %d", code)
	}
	return nil
}

// PythonBin returns the interpreter inside a virtual environment.
func PythonBin(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// BinDir returns the executable directory of a virtual environment,
// prepended to PATH for spawned commands.
func BinDir(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// Clean removes an environment directory.
func Clean(envDir string) error {
	return os.RemoveAll(envDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
