// Where: internal/config/matrix_test.go
// What: Tests for the matrix file loader.
// Why: Multi-line values and section layout must survive the INI reader.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/envmatrix/emx/internal/matrix"
)

const fixtureMatrix = `[matrix]
envlist =
    py{39,310}-django{32,40}
    py311

[env]
deps =
    pytest>=7.0
    django32: Django>=3.2,<3.3
    django40: Django>=4.0,<4.1
changedir = {rootdir}/test
setenv =
    PYTHONHASHSEED = 1234
commands =
    pytest {posargs}

[env:py311]
deps =
    pytest>=7.0
    coverage
commands =
    coverage run -m pytest
`

func writeMatrixFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "emx.ini")
	if err := os.WriteFile(path, []byte(fixtureMatrix), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadMatrixFile(t *testing.T) {
	path := writeMatrixFixture(t, t.TempDir())

	src, err := LoadMatrixFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	envlist, ok := src.Value(matrix.SectionMatrix, "envlist")
	if !ok {
		t.Fatal("envlist missing")
	}
	names, err := matrix.ExpandList(envlist)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(names) != 5 {
		t.Fatalf("expected 5 names, got %v", names)
	}

	deps, ok := src.Value(matrix.SectionEnv, "deps")
	if !ok {
		t.Fatal("deps missing")
	}
	if !strings.Contains(deps, "django32: Django>=3.2,<3.3") {
		t.Fatalf("multi-line value lost a line: %q", deps)
	}
}

func TestLoadMatrixFileResolves(t *testing.T) {
	dir := t.TempDir()
	path := writeMatrixFixture(t, dir)

	src, err := LoadMatrixFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := matrix.ResolveOptions{
		Paths:   matrix.Paths{RootDir: dir, HomeDir: "/home/u"},
		HostEnv: map[string]string{},
	}
	defs, err := matrix.Resolve(src, opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if defs[0].WorkDir != filepath.Join(dir, "test") {
		t.Fatalf("workdir: got %q", defs[0].WorkDir)
	}

	// Loading the same file again yields an identical table.
	src2, err := LoadMatrixFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defs2, err := matrix.Resolve(src2, opts)
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if !reflect.DeepEqual(defs, defs2) {
		t.Fatal("two loads of the same file disagree")
	}
}

func TestLoadMatrixFileMissing(t *testing.T) {
	if _, err := LoadMatrixFile(filepath.Join(t.TempDir(), "emx.ini")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMatrixFileWithoutMatrixSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emx.ini")
	if err := os.WriteFile(path, []byte("[env]\ncommands = true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadMatrixFile(path); err == nil {
		t.Fatal("expected error for missing [matrix] section")
	}
}

func TestMatrixFilePath(t *testing.T) {
	if got := MatrixFilePath("/proj", ""); got != filepath.Join("/proj", "emx.ini") {
		t.Fatalf("default: got %q", got)
	}
	if got := MatrixFilePath("/proj", "alt.ini"); got != filepath.Join("/proj", "alt.ini") {
		t.Fatalf("relative override: got %q", got)
	}
	if got := MatrixFilePath("/proj", "/etc/emx.ini"); got != "/etc/emx.ini" {
		t.Fatalf("absolute override: got %q", got)
	}
}
