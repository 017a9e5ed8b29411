// Where: internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/envmatrix/emx/internal/artifacts"
	"github.com/envmatrix/emx/internal/config"
	"github.com/envmatrix/emx/internal/container"
	"github.com/envmatrix/emx/internal/envutil"
	"github.com/envmatrix/emx/internal/interpreter"
	"github.com/envmatrix/emx/internal/runner"
	"github.com/envmatrix/emx/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command
// execution. This structure enables dependency injection for testing and
// allows swapping implementations of various subsystems.
type Dependencies struct {
	ProjectDir      string
	Out             io.Writer
	Now             func() time.Time
	Runner          runner.CommandRunner
	Locator         interpreter.Locator
	DockerFactory   func() (container.Client, error)
	UploaderFactory func(ctx context.Context, dest artifacts.Destination) (artifacts.S3API, error)
	HostEnv         []string
	Posargs         []string
}

// CLI defines the command-line interface structure parsed by Kong.
// It contains global flags and all subcommand definitions.
type CLI struct {
	Matrix   string `short:"m" help:"Path to the matrix file (default: emx.ini)"`
	EnvFile  string `name:"env-file" help:"Path to a .env file loaded before resolution"`
	Parallel int    `short:"p" help:"Run up to N environments concurrently"`
	Quiet    bool   `short:"q" help:"Suppress command echo"`

	Run       RunCmd       `cmd:"" help:"Run environments from the matrix"`
	List      ListCmd      `cmd:"" help:"List environments in the envlist"`
	Config    ConfigCmd    `cmd:"" help:"Show the resolved environment table"`
	Provision ProvisionCmd `cmd:"" help:"Provision environments without running commands"`
	Clean     CleanCmd     `cmd:"" help:"Remove environment directories"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

type (
	RunCmd struct {
		Envs   []string `arg:"" optional:"" help:"Environment names (default: every envlist entry)"`
		Env    string   `short:"e" help:"Comma-separated environment names"`
		Match  []string `name:"run" help:"Regex pattern(s) selecting environments to run"`
		Skip   []string `name:"skip" help:"Regex pattern(s) selecting environments to skip"`
		Report string   `help:"Write a markdown run report to PATH"`
		Upload bool     `help:"Upload the report to the configured S3 bucket"`
	}
	ListCmd struct {
		Verbose bool `short:"v" help:"Show the resolved interpreter per environment"`
	}
	ConfigCmd struct {
		Env   string `arg:"" optional:"" help:"Restrict output to one environment"`
		Check bool   `help:"Validate the resolved table and the global config"`
	}
	ProvisionCmd struct {
		Envs []string `arg:"" optional:"" help:"Environment names (default: every envlist entry)"`
	}
	CleanCmd struct {
		Envs []string `arg:"" optional:"" help:"Environment names (default: every envlist entry)"`
	}
	VersionCmd struct{}
)

// Run is the main entry point for CLI command execution. It parses the
// command-line arguments, identifies the requested command, and
// dispatches to the appropriate handler. Returns the run's exit code.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	if err := config.EnsureGlobalConfig(); err != nil {
		return exitWithError(out, err)
	}

	args, posargs := splitPosargs(args)
	if len(deps.Posargs) == 0 {
		deps.Posargs = posargs
	}

	if len(args) == 0 {
		args = []string{"list"}
	}

	cli := CLI{}
	parser, err := kong.New(&cli)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	if deps.HostEnv == nil {
		deps.HostEnv = os.Environ()
	}
	deps.HostEnv = applyEnvFile(cli, deps, out)

	command := ctx.Command()
	if exitCode, handled := dispatchCommand(command, cli, deps, out); handled {
		return exitCode
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

// dispatchCommand routes on the first word of kong's command string, so
// "run" and "run <envs>" land on the same handler.
func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	handlers := map[string]commandHandler{
		"run":       runRun,
		"list":      runList,
		"config":    runConfig,
		"provision": runProvision,
		"clean":     runClean,
		"version":   func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	name, _, _ := strings.Cut(command, " ")
	if handler, ok := handlers[name]; ok {
		return handler(cli, deps, out), true
	}
	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}

// applyEnvFile merges a dotenv file into the host environment handed to
// substitution. The explicit --env-file wins over a .env in the project
// directory; variables already present in the host environment are not
// overridden, matching dotenv load semantics.
func applyEnvFile(cli CLI, deps Dependencies, out io.Writer) []string {
	path := cli.EnvFile
	if path == "" && deps.ProjectDir != "" {
		candidate := filepath.Join(deps.ProjectDir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return deps.HostEnv
	}

	overlay, err := godotenv.Read(path)
	if err != nil {
		fmt.Fprintf(out, "Warning: failed to load env file %s: %v\n", path, err)
		return deps.HostEnv
	}

	existing := envutil.FromOS(deps.HostEnv)
	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		if _, ok := existing[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	merged := deps.HostEnv
	for _, key := range keys {
		merged = append(merged, key+"="+overlay[key])
	}
	return merged
}

// splitPosargs separates trailing arguments after "--"; they are handed
// verbatim to {posargs} substitution.
func splitPosargs(args []string) (own, posargs []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func splitEnvList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
