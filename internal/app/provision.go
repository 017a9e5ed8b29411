// Where: internal/app/provision.go
// What: The provision and clean commands.
// Why: Manage environment directories without running any matrix commands.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/envmatrix/emx/internal/config"
	"github.com/envmatrix/emx/internal/interpreter"
	"github.com/envmatrix/emx/internal/matrix"
	"github.com/envmatrix/emx/internal/provisioner"
)

func runProvision(cli CLI, deps Dependencies, out io.Writer) int {
	cc, err := resolveCommandContext(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	selected, err := cc.selection(cli.Provision.Envs, "")
	if err != nil {
		return exitWithError(out, err)
	}

	prov := &provisioner.Provisioner{
		Runner: deps.Runner,
		Discovery: &interpreter.Discovery{
			Locator: deps.Locator,
			Runner:  deps.Runner,
			Cache:   cc.Global.Interpreters,
		},
		Out: out,
		Now: deps.Now,
	}

	ctx := context.Background()
	failed := false
	for _, def := range selected {
		if def.Isolation == matrix.IsolationContainer {
			fmt.Fprintf(out, "%s: container environment, nothing to provision\n", def.Name)
			continue
		}
		result, err := prov.Ensure(ctx, def)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", def.Name, err)
			failed = true
			continue
		}
		if result.Skipped {
			fmt.Fprintf(out, "%s: up to date (%s)\n", def.Name, result.Interpreter.Path)
			continue
		}
		fmt.Fprintf(out, "%s: provisioned (%s)\n", def.Name, result.Interpreter.Path)
	}

	_ = config.SaveGlobalConfig(cc.GlobalPath, cc.Global)

	if failed {
		return 1
	}
	return 0
}

func runClean(cli CLI, deps Dependencies, out io.Writer) int {
	cc, err := resolveCommandContext(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	selected, err := cc.selection(cli.Clean.Envs, "")
	if err != nil {
		return exitWithError(out, err)
	}

	for _, def := range selected {
		if err := provisioner.Clean(def.EnvDir); err != nil {
			return exitWithError(out, err)
		}
		fmt.Fprintf(out, "%s: removed %s\n", def.Name, def.EnvDir)
	}
	return 0
}
