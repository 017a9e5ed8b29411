// Where: internal/matrix/resolve.go
// What: Environment table resolution.
// Why: Turn raw sections into complete, substitution-free environment records.
package matrix

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/envmatrix/emx/internal/constants"
	"github.com/envmatrix/emx/internal/depspec"
	"github.com/envmatrix/emx/internal/envutil"
	"github.com/envmatrix/emx/internal/meta"
)

// Paths anchors substitution for one resolution pass.
type Paths struct {
	RootDir string
	HomeDir string
}

// ResolveOptions carries per-invocation inputs that feed substitution.
type ResolveOptions struct {
	Paths   Paths
	Posargs []string
	HostEnv map[string]string
}

// Resolve expands the envlist and builds the full environment table.
// Resolution is deterministic: resolving the same source twice with the
// same options yields an identical table.
func Resolve(src *Source, opts ResolveOptions) ([]EnvDefinition, error) {
	envlistRaw, ok := src.Value(SectionMatrix, "envlist")
	if !ok || strings.TrimSpace(envlistRaw) == "" {
		return nil, fmt.Errorf("%s: [%s] envlist is missing", src.Path, SectionMatrix)
	}
	names, err := ExpandList(envlistRaw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}

	universe := factorUniverse(names)
	defs := make([]EnvDefinition, 0, len(names))
	for _, name := range names {
		def, err := resolveOne(src, name, universe, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: environment %s: %w", src.Path, name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ResolveEnv resolves a single named environment that may not appear in
// the envlist, as long as a matching section or the base record exists.
func ResolveEnv(src *Source, name string, opts ResolveOptions) (EnvDefinition, error) {
	envlistRaw, _ := src.Value(SectionMatrix, "envlist")
	names, err := ExpandList(envlistRaw)
	if err != nil {
		names = nil
	}
	return resolveOne(src, name, factorUniverse(append(names, name)), opts)
}

func resolveOne(src *Source, name string, universe map[string]struct{}, opts ResolveOptions) (EnvDefinition, error) {
	factors := Factors(name)
	workRoot, err := resolveWorkRoot(src, opts)
	if err != nil {
		return EnvDefinition{}, err
	}

	def := EnvDefinition{
		Name:    name,
		Factors: factors,
		EnvDir:  filepath.Join(workRoot, name),
	}

	ctx := SubstContext{
		RootDir: opts.Paths.RootDir,
		HomeDir: opts.Paths.HomeDir,
		EnvName: name,
		EnvDir:  def.EnvDir,
		Posargs: opts.Posargs,
		Env:     opts.HostEnv,
		Lookup:  src.Value,
	}

	value := func(key string) ([]string, error) {
		raw, ok := src.envValue(name, key)
		if !ok {
			return nil, nil
		}
		lines := applyConditionals(raw, factors, universe)
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			resolved, err := ctx.Substitute(line)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			out = append(out, resolved)
		}
		return out, nil
	}
	scalar := func(key string) (string, error) {
		lines, err := value(key)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(strings.Join(lines, " ")), nil
	}

	basepython, err := scalar("basepython")
	if err != nil {
		return EnvDefinition{}, err
	}
	def.Interpreter = InterpreterForFactors(factors, basepython)

	depLines, err := value("deps")
	if err != nil {
		return EnvDefinition{}, err
	}
	def.Deps, err = depspec.ParseAll(depLines)
	if err != nil {
		return EnvDefinition{}, err
	}

	def.WorkDir, err = scalar("changedir")
	if err != nil {
		return EnvDefinition{}, err
	}
	if def.WorkDir == "" {
		def.WorkDir = opts.Paths.RootDir
	}

	setenvLines, err := value("setenv")
	if err != nil {
		return EnvDefinition{}, err
	}
	def.SetEnv, err = parseSetEnv(setenvLines)
	if err != nil {
		return EnvDefinition{}, err
	}

	passenvLines, err := value("passenv")
	if err != nil {
		return EnvDefinition{}, err
	}
	def.PassEnv = splitWords(passenvLines)

	commandLines, err := value("commands")
	if err != nil {
		return EnvDefinition{}, err
	}
	for _, line := range commandLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		argv, err := SplitCommand(line)
		if err != nil {
			return EnvDefinition{}, err
		}
		if len(argv) == 0 {
			continue
		}
		def.Commands = append(def.Commands, argv)
	}
	if len(def.Commands) == 0 {
		return EnvDefinition{}, fmt.Errorf("no commands defined")
	}

	def.Isolation, err = scalar("isolation")
	if err != nil {
		return EnvDefinition{}, err
	}
	switch def.Isolation {
	case "":
		def.Isolation = IsolationVenv
	case IsolationVenv, IsolationContainer:
	default:
		return EnvDefinition{}, fmt.Errorf("unknown isolation mode %q", def.Isolation)
	}

	def.Image, err = scalar("image")
	if err != nil {
		return EnvDefinition{}, err
	}
	if def.Isolation == IsolationContainer && def.Image == "" {
		return EnvDefinition{}, fmt.Errorf("isolation = container requires an image")
	}

	return def, nil
}

func resolveWorkRoot(src *Source, opts ResolveOptions) (string, error) {
	if override := opts.HostEnv[envutil.HostEnvKey(constants.HostSuffixWorkDir)]; strings.TrimSpace(override) != "" {
		return override, nil
	}
	ctx := SubstContext{
		RootDir: opts.Paths.RootDir,
		HomeDir: opts.Paths.HomeDir,
		Env:     opts.HostEnv,
		Lookup:  src.Value,
	}
	raw, ok := src.Value(SectionMatrix, "workdir")
	if !ok || strings.TrimSpace(raw) == "" {
		return filepath.Join(opts.Paths.RootDir, meta.WorkDir), nil
	}
	resolved, err := ctx.Substitute(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("key workdir: %w", err)
	}
	return resolved, nil
}

var interpreterFactor = regexp.MustCompile(`^py(py)?(\d)?(\d+)?$`)

// InterpreterForFactors derives the base interpreter selector. An explicit
// basepython wins; otherwise the first interpreter-shaped factor decides
// (py39 -> python3.9, py3 -> python3, pypy3 -> pypy3); python3 is the
// final default.
func InterpreterForFactors(factors []string, basepython string) string {
	if basepython != "" {
		return basepython
	}
	for _, factor := range factors {
		m := interpreterFactor.FindStringSubmatch(factor)
		if m == nil {
			continue
		}
		if m[1] == "py" {
			return factor // pypy / pypy3
		}
		if m[2] == "" {
			return "python3"
		}
		if m[3] == "" {
			return "python" + m[2]
		}
		return fmt.Sprintf("python%s.%s", m[2], m[3])
	}
	return "python3"
}

// applyConditionals filters factor-conditional lines from a multi-line
// value. A line "py39,py310: X" keeps X only when the environment carries
// one of the listed factor combinations; "py39-django32: X" requires both
// factors. Prefixes whose tokens are not known factors are literal text.
func applyConditionals(raw string, factors []string, universe map[string]struct{}) []string {
	have := map[string]struct{}{}
	for _, f := range factors {
		have[f] = struct{}{}
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prefix, rest, ok := splitCondition(line, universe)
		if !ok {
			out = append(out, line)
			continue
		}
		if conditionMatches(prefix, have) {
			out = append(out, rest)
		}
	}
	return out
}

func splitCondition(line string, universe map[string]struct{}) (prefix, rest string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	prefix = line[:idx]
	if strings.ContainsAny(prefix, " \t={}") {
		return "", "", false
	}
	for _, alternative := range strings.Split(prefix, ",") {
		for _, factor := range strings.Split(alternative, "-") {
			if _, known := universe[factor]; !known {
				return "", "", false
			}
		}
	}
	return prefix, strings.TrimSpace(line[idx+1:]), true
}

func conditionMatches(prefix string, have map[string]struct{}) bool {
	for _, alternative := range strings.Split(prefix, ",") {
		all := true
		for _, factor := range strings.Split(alternative, "-") {
			if _, ok := have[factor]; !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func factorUniverse(names []string) map[string]struct{} {
	universe := map[string]struct{}{}
	for _, name := range names {
		for _, factor := range Factors(name) {
			universe[factor] = struct{}{}
		}
	}
	return universe
}

func parseSetEnv(lines []string) ([]EnvVar, error) {
	var out []EnvVar
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			return nil, fmt.Errorf("setenv line %q is not KEY = VALUE", line)
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return nil, fmt.Errorf("setenv line %q has an empty key", line)
		}
		out = append(out, EnvVar{Key: key, Value: strings.TrimSpace(line[idx+1:])})
	}
	return out, nil
}

func splitWords(lines []string) []string {
	var out []string
	for _, line := range lines {
		out = append(out, strings.Fields(line)...)
	}
	return out
}
