// Where: internal/matrix/definition.go
// What: Resolved environment table types.
// Why: One record per matrix entry, fully resolved before any subprocess runs.
package matrix

import (
	"strings"

	"github.com/envmatrix/emx/internal/depspec"
)

// Isolation modes for an environment.
const (
	IsolationVenv      = "venv"
	IsolationContainer = "container"
)

// EnvVar is one ordered setenv assignment.
type EnvVar struct {
	Key   string
	Value string
}

// EnvDefinition is a fully resolved environment: every inherited default
// applied, every substitution token expanded. The table is what `emx config`
// prints and what the provisioner and runner consume.
type EnvDefinition struct {
	Name        string
	Factors     []string
	Interpreter string
	Deps        []depspec.Spec
	EnvDir      string
	WorkDir     string
	SetEnv      []EnvVar
	PassEnv     []string
	Commands    [][]string
	Isolation   string
	Image       string
}

// Source is the raw section/key view of a matrix file, decoupled from the
// INI reader so resolution stays pure and testable.
type Source struct {
	Path     string
	Sections map[string]map[string]string
}

// Value returns the raw value for section/key.
func (s *Source) Value(section, key string) (string, bool) {
	sec, ok := s.Sections[section]
	if !ok {
		return "", false
	}
	v, ok := sec[key]
	return v, ok
}

// envValue resolves a per-environment key: the [env:NAME] section wins,
// the [env] base record supplies the fallback.
func (s *Source) envValue(name, key string) (string, bool) {
	if v, ok := s.Value(SectionEnvPrefix+name, key); ok {
		return v, true
	}
	return s.Value(SectionEnv, key)
}

// Section names recognized in a matrix file.
const (
	SectionMatrix    = "matrix"
	SectionEnv       = "env"
	SectionEnvPrefix = "env:"
)

// Factors splits an environment name into its hyphen-separated factors.
func Factors(name string) []string {
	return strings.Split(name, "-")
}
