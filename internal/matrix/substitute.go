// Where: internal/matrix/substitute.go
// What: Placeholder substitution.
// Why: Every token must resolve to a concrete value before a subprocess is spawned.
package matrix

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

// maxSubstitutionDepth caps reference chains; deeper nesting is reported
// as a cycle.
const maxSubstitutionDepth = 16

// SubstContext carries the values substitution tokens resolve against.
type SubstContext struct {
	RootDir string
	HomeDir string
	EnvName string
	EnvDir  string
	Posargs []string

	// Env is the host environment (plus any env-file overlay) consulted
	// by {env:VAR} tokens.
	Env map[string]string

	// Lookup resolves {[section]key} cross-references against the raw
	// matrix source. The returned value is substituted recursively.
	Lookup func(section, key string) (string, bool)
}

// Substitute expands every {token} in value. Supported tokens:
//
//	{rootdir}             project root directory
//	{homedir}             current user's home directory
//	{envname}             environment name
//	{envdir}              environment directory
//	{env:VAR}             host environment variable, error when unset
//	{env:VAR:fallback}    host environment variable with default
//	{posargs}             extra command arguments, shell-quoted
//	{posargs:default}     extra command arguments with default
//	{[section]key}        raw value of another section/key, recursively expanded
//
// A doubled brace ({{ or }}) produces a literal brace.
func (c SubstContext) Substitute(value string) (string, error) {
	return c.substitute(value, 0)
}

func (c SubstContext) substitute(value string, depth int) (string, error) {
	if depth > maxSubstitutionDepth {
		return "", fmt.Errorf("substitution exceeds depth %d (reference cycle?)", maxSubstitutionDepth)
	}

	var out strings.Builder
	for i := 0; i < len(value); {
		ch := value[i]
		switch {
		case ch == '{' && i+1 < len(value) && value[i+1] == '{':
			out.WriteByte('{')
			i += 2
		case ch == '}' && i+1 < len(value) && value[i+1] == '}':
			out.WriteByte('}')
			i += 2
		case ch == '{':
			end := strings.IndexByte(value[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated substitution token in %q", value)
			}
			end += i
			resolved, err := c.resolveToken(value[i+1:end], depth)
			if err != nil {
				return "", err
			}
			out.WriteString(resolved)
			i = end + 1
		case ch == '}':
			return "", fmt.Errorf("unbalanced '}' in %q", value)
		default:
			out.WriteByte(ch)
			i++
		}
	}
	return out.String(), nil
}

func (c SubstContext) resolveToken(token string, depth int) (string, error) {
	switch {
	case token == "rootdir":
		return c.nonEmpty("rootdir", c.RootDir)
	case token == "homedir":
		return c.nonEmpty("homedir", c.HomeDir)
	case token == "envname":
		return c.nonEmpty("envname", c.EnvName)
	case token == "envdir":
		return c.nonEmpty("envdir", c.EnvDir)
	case token == "posargs":
		return shellescape.QuoteCommand(c.Posargs), nil
	case strings.HasPrefix(token, "posargs:"):
		if len(c.Posargs) > 0 {
			return shellescape.QuoteCommand(c.Posargs), nil
		}
		return c.substitute(token[len("posargs:"):], depth+1)
	case strings.HasPrefix(token, "env:"):
		return c.resolveEnvToken(token[len("env:"):], depth)
	case strings.HasPrefix(token, "["):
		return c.resolveCrossReference(token, depth)
	default:
		return "", fmt.Errorf("unknown substitution token {%s}", token)
	}
}

func (c SubstContext) resolveEnvToken(spec string, depth int) (string, error) {
	name := spec
	fallback := ""
	hasFallback := false
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		name = spec[:idx]
		fallback = spec[idx+1:]
		hasFallback = true
	}
	if name == "" {
		return "", fmt.Errorf("{env:} token has no variable name")
	}
	if value, ok := c.Env[name]; ok {
		return value, nil
	}
	if hasFallback {
		return c.substitute(fallback, depth+1)
	}
	return "", fmt.Errorf("environment variable %q is not set and {env:%s} has no fallback", name, name)
}

func (c SubstContext) resolveCrossReference(token string, depth int) (string, error) {
	end := strings.IndexByte(token, ']')
	if end < 0 {
		return "", fmt.Errorf("malformed cross-reference token {%s}", token)
	}
	section := token[1:end]
	key := token[end+1:]
	if section == "" || key == "" {
		return "", fmt.Errorf("malformed cross-reference token {%s}", token)
	}
	if c.Lookup == nil {
		return "", fmt.Errorf("cross-reference {%s} is not resolvable here", token)
	}
	raw, ok := c.Lookup(section, key)
	if !ok {
		return "", fmt.Errorf("cross-reference {[%s]%s} does not exist", section, key)
	}
	return c.substitute(raw, depth+1)
}

func (c SubstContext) nonEmpty(token, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("substitution token {%s} resolved to an empty value", token)
	}
	return value, nil
}
