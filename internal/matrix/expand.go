// Where: internal/matrix/expand.go
// What: Envlist expansion.
// Why: Generative brace entries declare the interpreter x framework cross product.
package matrix

import (
	"fmt"
	"strings"
)

// ExpandList expands a raw envlist value into the ordered list of
// environment names. Entries are separated by commas or newlines; each
// entry may contain generative braces: "py{38,39}-django{32,40}" yields
// the four-element cross product. Duplicate names are an error.
func ExpandList(raw string) ([]string, error) {
	var names []string
	seen := map[string]struct{}{}
	for _, entry := range splitList(raw) {
		expanded, err := expandBraces(entry)
		if err != nil {
			return nil, fmt.Errorf("envlist entry %q: %w", entry, err)
		}
		for _, name := range expanded {
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("duplicate environment name %q in envlist", name)
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("envlist is empty")
	}
	return names, nil
}

func splitList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		for _, part := range splitOutsideBraces(line) {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// splitOutsideBraces splits a line on commas at brace depth zero, so the
// alternatives inside a generative group stay together.
func splitOutsideBraces(line string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, line[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, line[start:])
}

// expandBraces expands the first {a,b,...} group and recurses on each
// branch. Groups do not nest.
func expandBraces(entry string) ([]string, error) {
	open := strings.Index(entry, "{")
	if open < 0 {
		if strings.Contains(entry, "}") {
			return nil, fmt.Errorf("unbalanced brace")
		}
		return []string{entry}, nil
	}
	close := strings.Index(entry[open:], "}")
	if close < 0 {
		return nil, fmt.Errorf("unbalanced brace")
	}
	close += open

	group := entry[open+1 : close]
	if strings.Contains(group, "{") {
		return nil, fmt.Errorf("nested braces are not supported")
	}
	alternatives := strings.Split(group, ",")
	if len(alternatives) < 2 {
		return nil, fmt.Errorf("brace group needs at least two alternatives")
	}

	var out []string
	for _, alt := range alternatives {
		alt = strings.TrimSpace(alt)
		expanded, err := expandBraces(entry[:open] + alt + entry[close+1:])
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}
