// Where: internal/app/command_context.go
// What: Shared resolution work done before every command.
// Why: Keep the per-command handlers focused on their own behavior.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/envmatrix/emx/internal/config"
	"github.com/envmatrix/emx/internal/constants"
	"github.com/envmatrix/emx/internal/envutil"
	"github.com/envmatrix/emx/internal/matrix"
)

// commandContext carries the resolved matrix plus the surrounding
// configuration every command needs.
type commandContext struct {
	ProjectDir  string
	MatrixPath  string
	Source      *matrix.Source
	Defs        []matrix.EnvDefinition
	ResolveOpts matrix.ResolveOptions
	Global      config.GlobalConfig
	GlobalPath  string
	HostEnv     map[string]string
}

func resolveCommandContext(cli CLI, deps Dependencies) (*commandContext, error) {
	projectDir := deps.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	matrixPath := config.MatrixFilePath(projectDir, cli.Matrix)
	source, err := config.LoadMatrixFile(matrixPath)
	if err != nil {
		return nil, err
	}

	hostEnv := envutil.FromOS(deps.HostEnv)
	if deps.HostEnv == nil {
		hostEnv = envutil.FromOS(os.Environ())
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = projectDir
	}

	resolveOpts := matrix.ResolveOptions{
		Paths: matrix.Paths{
			RootDir: projectDir,
			HomeDir: homeDir,
		},
		Posargs: deps.Posargs,
		HostEnv: hostEnv,
	}
	defs, err := matrix.Resolve(source, resolveOpts)
	if err != nil {
		return nil, err
	}

	globalPath, err := config.GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	global, err := config.LoadGlobalConfig(globalPath)
	if err != nil {
		return nil, err
	}

	return &commandContext{
		ProjectDir:  projectDir,
		MatrixPath:  matrixPath,
		Source:      source,
		Defs:        defs,
		ResolveOpts: resolveOpts,
		Global:      global,
		GlobalPath:  globalPath,
		HostEnv:     hostEnv,
	}, nil
}

// selection returns the environments a command should operate on: explicit
// names first, then the EMX_ENVLIST host override, then the full envlist.
func (c *commandContext) selection(names []string, commaList string) ([]matrix.EnvDefinition, error) {
	if len(names) == 0 {
		names = splitEnvList(commaList)
	}
	if len(names) == 0 {
		names = splitEnvList(c.HostEnv[envutil.HostEnvKey(constants.HostSuffixEnvList)])
	}
	return matrix.Select(c.Defs, names)
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintf(out, "Error: %v\n", err)
	return 1
}
