// Where: internal/depspec/depspec.go
// What: Dependency specifier parsing and validation.
// Why: Matrix entries constrain package versions; reject malformed specifiers early.
package depspec

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Spec is a parsed dependency specifier: a package name plus an optional
// comma-separated set of version range constraints, e.g. "Django>=3.2,<3.3".
type Spec struct {
	Name        string
	Constraints []Constraint
	raw         string
}

// Constraint is a single operator/version pair within a specifier.
type Constraint struct {
	Operator string
	Version  string
}

var operators = []string{"===", "==", "!=", ">=", "<=", "~=", ">", "<"}

// Parse validates a single specifier line.
func Parse(raw string) (Spec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Spec{}, fmt.Errorf("empty dependency specifier")
	}

	name, rest := splitName(trimmed)
	if name == "" {
		return Spec{}, fmt.Errorf("dependency specifier %q has no package name", raw)
	}
	if err := validateName(name); err != nil {
		return Spec{}, err
	}

	spec := Spec{Name: name, raw: trimmed}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return spec, nil
	}

	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Spec{}, fmt.Errorf("dependency specifier %q has an empty constraint", raw)
		}
		constraint, err := parseConstraint(part)
		if err != nil {
			return Spec{}, fmt.Errorf("dependency specifier %q: %w", raw, err)
		}
		spec.Constraints = append(spec.Constraints, constraint)
	}
	return spec, nil
}

// ParseAll parses one specifier per line, skipping blanks.
func ParseAll(lines []string) ([]Spec, error) {
	var specs []Spec
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		spec, err := Parse(line)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// String returns the specifier as written, suitable for handing to the
// package installer unchanged.
func (s Spec) String() string {
	return s.raw
}

// Matches reports whether the given version satisfies every constraint of
// the specifier. Versions that do not parse are rejected.
func (s Spec) Matches(candidate string) (bool, error) {
	ver, err := goversion.NewVersion(candidate)
	if err != nil {
		return false, fmt.Errorf("version %q: %w", candidate, err)
	}
	for _, c := range s.Constraints {
		op := c.Operator
		switch op {
		case "==", "===":
			op = "="
		case "~=":
			op = "~>"
		}
		constraints, err := goversion.NewConstraint(op + " " + c.Version)
		if err != nil {
			return false, fmt.Errorf("constraint %s%s: %w", c.Operator, c.Version, err)
		}
		if !constraints.Check(ver) {
			return false, nil
		}
	}
	return true, nil
}

func splitName(s string) (name, rest string) {
	idx := strings.IndexFunc(s, func(r rune) bool {
		switch r {
		case '<', '>', '=', '!', '~', ';', ' ':
			return true
		}
		return false
	})
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

func validateName(name string) error {
	for _, r := range name {
		valid := r == '-' || r == '_' || r == '.' || r == '[' || r == ']' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid {
			return fmt.Errorf("package name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

func parseConstraint(part string) (Constraint, error) {
	for _, op := range operators {
		if strings.HasPrefix(part, op) {
			ver := strings.TrimSpace(strings.TrimPrefix(part, op))
			if ver == "" {
				return Constraint{}, fmt.Errorf("operator %q has no version", op)
			}
			if _, err := goversion.NewVersion(strings.TrimSuffix(ver, ".*")); err != nil {
				return Constraint{}, fmt.Errorf("version %q: %w", ver, err)
			}
			return Constraint{Operator: op, Version: ver}, nil
		}
	}
	return Constraint{}, fmt.Errorf("constraint %q has no comparison operator", part)
}
