// Where: internal/matrix/expand_test.go
// What: Tests for envlist expansion.
// Why: Generative entries must expand to the exact cross product, once each.
package matrix

import (
	"reflect"
	"testing"
)

func TestExpandListCrossProduct(t *testing.T) {
	names, err := ExpandList("py{39,310}-django{32,40}")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{
		"py39-django32",
		"py39-django40",
		"py310-django32",
		"py310-django40",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestExpandListBracesNextToPlainEntries(t *testing.T) {
	names, err := ExpandList("py{39,310}, lint, py311-django{32,40}")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{"py39", "py310", "lint", "py311-django32", "py311-django40"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestExpandListMixedSeparators(t *testing.T) {
	names, err := ExpandList("py39, py310\npy311-coverage")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{"py39", "py310", "py311-coverage"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestExpandListRejectsDuplicates(t *testing.T) {
	if _, err := ExpandList("py39, py{39,310}"); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestExpandListRejectsMalformedBraces(t *testing.T) {
	for _, raw := range []string{"py{39", "py39}", "py{39}", "py{{39,310}}"} {
		if _, err := ExpandList(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestExpandListRejectsEmpty(t *testing.T) {
	if _, err := ExpandList("  \n "); err == nil {
		t.Fatal("expected error for empty envlist")
	}
}
