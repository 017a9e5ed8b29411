// Where: internal/app/showconfig.go
// What: The config command.
// Why: Print the fully resolved environment table and optionally validate it.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/envmatrix/emx/internal/config"
	"github.com/envmatrix/emx/internal/matrix"
	"github.com/envmatrix/emx/internal/runner"
	"github.com/envmatrix/emx/internal/ui"
)

func runConfig(cli CLI, deps Dependencies, out io.Writer) int {
	cc, err := resolveCommandContext(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	defs := cc.Defs
	if name := strings.TrimSpace(cli.Config.Env); name != "" {
		defs, err = matrix.Select(cc.Defs, []string{name})
		if err != nil {
			// Names outside the envlist still resolve against the base
			// record, so ad-hoc environments can be inspected.
			def, resolveErr := matrix.ResolveEnv(cc.Source, name, cc.ResolveOpts)
			if resolveErr != nil {
				return exitWithError(out, err)
			}
			defs = []matrix.EnvDefinition{def}
		}
	}

	if cli.Config.Check {
		return checkConfig(cc, defs, out)
	}

	console := ui.New(out)
	for _, def := range defs {
		console.Header(def.Name)
		console.Item("interpreter", def.Interpreter)
		console.Item("envdir", def.EnvDir)
		console.Item("changedir", def.WorkDir)
		console.Item("isolation", def.Isolation)
		if def.Image != "" {
			console.Item("image", def.Image)
		}
		if len(def.Deps) > 0 {
			deps := make([]string, 0, len(def.Deps))
			for _, dep := range def.Deps {
				deps = append(deps, dep.String())
			}
			console.Item("deps", strings.Join(deps, ", "))
		}
		for _, kv := range def.SetEnv {
			console.Item("setenv", kv.Key+"="+kv.Value)
		}
		if len(def.PassEnv) > 0 {
			console.Item("passenv", strings.Join(def.PassEnv, " "))
		}
		for _, argv := range def.Commands {
			console.Item("command", runner.Echo(argv))
		}
		console.Blank()
	}
	return 0
}

// checkConfig validates the resolved table against the matrix schema and
// the global config file against its schema.
func checkConfig(cc *commandContext, defs []matrix.EnvDefinition, out io.Writer) int {
	if err := config.ValidateResolved(defs); err != nil {
		fmt.Fprintf(out, "%s: %v\n", cc.MatrixPath, err)
		return 1
	}
	fmt.Fprintf(out, "%s: %d environments ok\n", cc.MatrixPath, len(defs))

	payload, err := os.ReadFile(cc.GlobalPath)
	if err != nil {
		return exitWithError(out, err)
	}
	if err := config.ValidateGlobalConfig(payload); err != nil {
		fmt.Fprintf(out, "%s: %v\n", cc.GlobalPath, err)
		return 1
	}
	fmt.Fprintf(out, "%s: ok\n", cc.GlobalPath)
	return 0
}
