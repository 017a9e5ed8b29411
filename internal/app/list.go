// Where: internal/app/list.go
// What: The list command.
// Why: Show the expanded envlist without provisioning anything.
package app

import (
	"fmt"
	"io"
)

func runList(cli CLI, deps Dependencies, out io.Writer) int {
	cc, err := resolveCommandContext(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	for _, def := range cc.Defs {
		if cli.List.Verbose {
			fmt.Fprintf(out, "%-24s %s\n", def.Name, def.Interpreter)
			continue
		}
		fmt.Fprintln(out, def.Name)
	}
	return 0
}
