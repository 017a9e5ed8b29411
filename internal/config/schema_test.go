// Where: internal/config/schema_test.go
// What: Tests for schema validation.
// Why: Structural guarantees of the resolved table are part of the contract.
package config

import (
	"strings"
	"testing"

	"github.com/envmatrix/emx/internal/matrix"
)

func validDefs() []matrix.EnvDefinition {
	return []matrix.EnvDefinition{
		{
			Name:        "py39",
			Interpreter: "python3.9",
			EnvDir:      "/proj/.emx/py39",
			WorkDir:     "/proj",
			SetEnv:      []matrix.EnvVar{{Key: "PYTHONHASHSEED", Value: "1234"}},
			Commands:    [][]string{{"pytest"}},
			Isolation:   matrix.IsolationVenv,
		},
	}
}

func TestValidateResolvedAccepts(t *testing.T) {
	if err := ValidateResolved(validDefs()); err != nil {
		t.Fatalf("expected valid table: %v", err)
	}
}

func TestValidateResolvedRejects(t *testing.T) {
	broken := validDefs()
	broken[0].Commands = nil
	if err := ValidateResolved(broken); err == nil {
		t.Fatal("expected error for missing commands")
	}

	broken = validDefs()
	broken[0].Name = "bad name"
	if err := ValidateResolved(broken); err == nil {
		t.Fatal("expected error for invalid name")
	}

	broken = validDefs()
	broken[0].Isolation = "chroot"
	if err := ValidateResolved(broken); err == nil {
		t.Fatal("expected error for unknown isolation mode")
	}
}

func TestValidateGlobalConfig(t *testing.T) {
	valid := strings.TrimSpace(`
version: 1
interpreters:
  python3.9: /usr/bin/python3.9
reports:
  s3_bucket: ci-artifacts
`)
	if err := ValidateGlobalConfig([]byte(valid)); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	invalid := "version: 1\nunknown_key: true\n"
	if err := ValidateGlobalConfig([]byte(invalid)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
