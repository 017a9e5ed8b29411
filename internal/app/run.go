// Where: internal/app/run.go
// What: The run command.
// Why: Provision selected environments, spawn their commands, report one exit code.
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/envmatrix/emx/internal/artifacts"
	"github.com/envmatrix/emx/internal/config"
	"github.com/envmatrix/emx/internal/constants"
	"github.com/envmatrix/emx/internal/container"
	"github.com/envmatrix/emx/internal/envutil"
	"github.com/envmatrix/emx/internal/interpreter"
	"github.com/envmatrix/emx/internal/matrix"
	"github.com/envmatrix/emx/internal/meta"
	"github.com/envmatrix/emx/internal/provisioner"
	"github.com/envmatrix/emx/internal/report"
	"github.com/envmatrix/emx/internal/runner"
)

// Host variables forwarded into every spawned command regardless of passenv.
var alwaysPassed = []string{"HOME", "LANG", "LC_ALL", "TMPDIR", "TEMP", "TMP"}

func runRun(cli CLI, deps Dependencies, out io.Writer) int {
	cc, err := resolveCommandContext(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	selected, err := cc.selection(cli.Run.Envs, cli.Run.Env)
	if err != nil {
		return exitWithError(out, err)
	}
	filters, err := matrix.CompileFilters(cli.Run.Match, cli.Run.Skip)
	if err != nil {
		return exitWithError(out, err)
	}
	selected = filters.Apply(selected)
	if len(selected) == 0 {
		fmt.Fprintln(out, "no environments selected")
		return 0
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	// One Discovery for the whole run: environments executed with --parallel
	// share the interpreter cache, so the lookups must go through a single
	// mutex-guarded instance.
	discovery := &interpreter.Discovery{
		Locator: deps.Locator,
		Runner:  deps.Runner,
		Cache:   cc.Global.Interpreters,
	}

	ctx := context.Background()
	results := report.Results{Started: now()}
	results.Envs = executeAll(ctx, cli, deps, cc, discovery, selected, out)
	results.Finished = now()

	report.PrintSummary(out, results)

	if err := finishReports(ctx, cli, deps, cc, results, out); err != nil {
		return exitWithError(out, err)
	}

	// Discovery refreshed the interpreter cache in place; persisting it is
	// best effort.
	_ = config.SaveGlobalConfig(cc.GlobalPath, cc.Global)

	return results.ExitCode()
}

// executeAll runs every selected environment, sequentially by default.
// With --parallel the environments run concurrently with per-environment
// output buffers, flushed in declaration order once everything finished.
func executeAll(ctx context.Context, cli CLI, deps Dependencies, cc *commandContext, discovery *interpreter.Discovery, defs []matrix.EnvDefinition, out io.Writer) []report.EnvResult {
	results := make([]report.EnvResult, len(defs))

	if cli.Parallel > 1 {
		buffers := make([]bytes.Buffer, len(defs))
		var group errgroup.Group
		group.SetLimit(cli.Parallel)
		for i, def := range defs {
			group.Go(func() error {
				results[i] = executeEnv(ctx, cli, deps, cc, discovery, def, &buffers[i])
				return nil
			})
		}
		_ = group.Wait()
		for i := range buffers {
			_, _ = out.Write(buffers[i].Bytes())
		}
		return results
	}

	for i, def := range defs {
		results[i] = executeEnv(ctx, cli, deps, cc, discovery, def, out)
	}
	return results
}

func executeEnv(ctx context.Context, cli CLI, deps Dependencies, cc *commandContext, discovery *interpreter.Discovery, def matrix.EnvDefinition, out io.Writer) report.EnvResult {
	start := time.Now()
	result := report.EnvResult{Name: def.Name, Status: report.StatusPassed}

	code, err := runEnv(ctx, cli, deps, cc, discovery, def, out)
	result.Duration = time.Since(start)
	switch {
	case err != nil:
		result.Status = report.StatusError
		result.Message = err.Error()
	case code != 0:
		result.Status = report.StatusFailed
		result.ExitCode = code
	}
	return result
}

func runEnv(ctx context.Context, cli CLI, deps Dependencies, cc *commandContext, discovery *interpreter.Discovery, def matrix.EnvDefinition, out io.Writer) (int, error) {
	if info, err := os.Stat(def.WorkDir); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("working directory %s does not exist", def.WorkDir)
	}

	if def.Isolation == matrix.IsolationContainer {
		return runEnvInContainer(ctx, cli, deps, def, out)
	}

	prov := &provisioner.Provisioner{
		Runner:    deps.Runner,
		Discovery: discovery,
		Out:       out,
		Now:       deps.Now,
	}
	provisioned, err := prov.Ensure(ctx, def)
	if err != nil {
		return 0, err
	}

	env := commandEnv(def, provisioned, cc.HostEnv)
	for _, argv := range def.Commands {
		if !cli.Quiet {
			fmt.Fprintf(out, "%s run: %s\n", def.Name, runner.Echo(argv))
		}
		code, err := deps.Runner.Run(ctx, runner.Command{Argv: argv, Dir: def.WorkDir, Env: env}, out)
		if err != nil {
			return 0, err
		}
		if code != 0 {
			return code, nil
		}
	}
	return 0, nil
}

func runEnvInContainer(ctx context.Context, cli CLI, deps Dependencies, def matrix.EnvDefinition, out io.Writer) (int, error) {
	if deps.DockerFactory == nil {
		return 0, fmt.Errorf("container isolation is not available")
	}
	client, err := deps.DockerFactory()
	if err != nil {
		return 0, fmt.Errorf("connect to docker: %w", err)
	}

	if !cli.Quiet {
		for _, argv := range def.Commands {
			fmt.Fprintf(out, "%s run: %s\n", def.Name, runner.Echo(argv))
		}
	}

	spec := container.RunSpec{
		Image:    def.Image,
		HostDir:  def.WorkDir,
		Env:      containerEnv(def),
		Commands: def.Commands,
	}
	return container.RunCommands(ctx, client, spec, out)
}

// commandEnv builds the filtered environment for spawned commands: a small
// always-passed base, the passenv matches, the virtual environment's PATH
// and markers, then setenv with the highest precedence.
func commandEnv(def matrix.EnvDefinition, provisioned provisioner.Result, host map[string]string) []string {
	base := map[string]string{}
	for _, key := range alwaysPassed {
		if v, ok := host[key]; ok {
			base[key] = v
		}
	}
	passed := envutil.FilterGlob(host, def.PassEnv)

	path := provisioner.BinDir(provisioned.VenvDir)
	if hostPath := host["PATH"]; hostPath != "" {
		path += string(os.PathListSeparator) + hostPath
	}
	own := map[string]string{
		"PATH":                  path,
		"VIRTUAL_ENV":           provisioned.VenvDir,
		constants.EnvEMXEnvName: def.Name,
		constants.EnvEMXEnvDir:  def.EnvDir,
	}

	set := map[string]string{}
	for _, kv := range def.SetEnv {
		set[kv.Key] = kv.Value
	}
	return envutil.Merge(base, passed, own, set)
}

func containerEnv(def matrix.EnvDefinition) []string {
	set := map[string]string{}
	for _, kv := range def.SetEnv {
		set[kv.Key] = kv.Value
	}
	return envutil.Merge(set, map[string]string{constants.EnvEMXEnvName: def.Name})
}

// finishReports writes the markdown run report and optionally uploads it.
func finishReports(ctx context.Context, cli CLI, deps Dependencies, cc *commandContext, results report.Results, out io.Writer) error {
	reportPath := cli.Run.Report
	if reportPath == "" && cc.Global.Reports.Dir != "" {
		name := results.Started.Format("20060102-150405") + "-" + meta.ReportFile
		reportPath = filepath.Join(cc.Global.Reports.Dir, name)
	}
	if reportPath != "" {
		if err := report.Write(reportPath, results); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "report written to %s\n", reportPath)
	}

	if !cli.Run.Upload {
		return nil
	}
	dest := artifacts.Destination{
		Bucket: cc.Global.Reports.S3Bucket,
		Prefix: cc.Global.Reports.S3Prefix,
		Region: cc.Global.Reports.S3Region,
	}
	if !dest.Configured() {
		return fmt.Errorf("no s3 bucket configured in %s", cc.GlobalPath)
	}

	factory := deps.UploaderFactory
	if factory == nil {
		factory = artifacts.NewS3Client
	}
	client, err := factory(ctx, dest)
	if err != nil {
		return fmt.Errorf("create s3 client: %w", err)
	}
	payload, err := report.Render(results)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	location, err := artifacts.Upload(ctx, client, dest, results.Started, payload)
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	fmt.Fprintf(out, "report uploaded to %s\n", location)
	return nil
}
