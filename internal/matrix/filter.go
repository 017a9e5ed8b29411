// Where: internal/matrix/filter.go
// What: Environment selection.
// Why: Runs target either explicit names or regex-narrowed subsets of the envlist.
package matrix

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Select returns the definitions matching the requested names, in matrix
// declaration order. An empty request selects everything. Unknown names
// are an error naming the known environments.
func Select(defs []EnvDefinition, names []string) ([]EnvDefinition, error) {
	if len(names) == 0 {
		return defs, nil
	}

	byName := map[string]EnvDefinition{}
	for _, def := range defs {
		byName[def.Name] = def
	}

	requested := map[string]struct{}{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown environment %q (known: %s)", name, strings.Join(knownNames(defs), ", "))
		}
		requested[name] = struct{}{}
	}

	var out []EnvDefinition
	for _, def := range defs {
		if _, ok := requested[def.Name]; ok {
			out = append(out, def)
		}
	}
	return out, nil
}

// RegexFilters narrows a selection: an environment runs when it matches
// at least one must-match pattern (or none are given) and no must-not-match
// pattern.
type RegexFilters struct {
	MustMatch    []*regexp.Regexp
	MustNotMatch []*regexp.Regexp
}

// CompileFilters builds RegexFilters from raw pattern strings.
func CompileFilters(mustMatch, mustNotMatch []string) (RegexFilters, error) {
	compile := func(patterns []string) ([]*regexp.Regexp, error) {
		var out []*regexp.Regexp
		for _, p := range patterns {
			rx, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", p, err)
			}
			out = append(out, rx)
		}
		return out, nil
	}
	must, err := compile(mustMatch)
	if err != nil {
		return RegexFilters{}, err
	}
	mustNot, err := compile(mustNotMatch)
	if err != nil {
		return RegexFilters{}, err
	}
	return RegexFilters{MustMatch: must, MustNotMatch: mustNot}, nil
}

// Apply filters the definitions, preserving order.
func (f RegexFilters) Apply(defs []EnvDefinition) []EnvDefinition {
	var out []EnvDefinition
	for _, def := range defs {
		if f.keep(def.Name) {
			out = append(out, def)
		}
	}
	return out
}

func (f RegexFilters) keep(name string) bool {
	if len(f.MustMatch) > 0 && !anyMatch(f.MustMatch, name) {
		return false
	}
	return !anyMatch(f.MustNotMatch, name)
}

func anyMatch(patterns []*regexp.Regexp, name string) bool {
	for _, rx := range patterns {
		if rx.MatchString(name) {
			return true
		}
	}
	return false
}

func knownNames(defs []EnvDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}
