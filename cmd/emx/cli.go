// Where: cmd/emx/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"os"
	"time"

	"github.com/envmatrix/emx/internal/app"
	"github.com/envmatrix/emx/internal/container"
	"github.com/envmatrix/emx/internal/interpreter"
	"github.com/envmatrix/emx/internal/runner"
)

var getwd = os.Getwd

// buildDependencies constructs the runtime dependencies for the CLI.
// The Docker client is behind a factory so venv-only projects never
// touch the Docker socket.
func buildDependencies() (app.Dependencies, error) {
	projectDir, err := getwd()
	if err != nil {
		return app.Dependencies{}, err
	}

	return app.Dependencies{
		ProjectDir:    projectDir,
		Out:           os.Stdout,
		Now:           time.Now,
		Runner:        runner.ExecRunner{},
		Locator:       interpreter.ExecLocator{},
		DockerFactory: container.NewClient,
		HostEnv:       os.Environ(),
	}, nil
}
