// Where: internal/state/state_test.go
// What: Tests for lifecycle derivation and provision records.
// Why: Fingerprint equality is the only thing that skips a re-install.
package state

import (
	"testing"
	"time"
)

func TestFingerprintIgnoresDepOrder(t *testing.T) {
	a := Fingerprint("/usr/bin/python3.9", []string{"pytest>=7.0", "Django>=3.2,<3.3"})
	b := Fingerprint("/usr/bin/python3.9", []string{"Django>=3.2,<3.3", "pytest>=7.0"})
	if a != b {
		t.Fatal("fingerprint should not depend on dependency order")
	}
}

func TestFingerprintChanges(t *testing.T) {
	base := Fingerprint("/usr/bin/python3.9", []string{"pytest>=7.0"})
	if base == Fingerprint("/usr/bin/python3.10", []string{"pytest>=7.0"}) {
		t.Fatal("interpreter change should change the fingerprint")
	}
	if base == Fingerprint("/usr/bin/python3.9", []string{"pytest>=8.0"}) {
		t.Fatal("dependency change should change the fingerprint")
	}
}

func TestDeriveLifecycle(t *testing.T) {
	envDir := t.TempDir()
	fp := Fingerprint("/usr/bin/python3.9", []string{"pytest"})

	if got := Derive(envDir, fp); got != StateUninitialized {
		t.Fatalf("fresh dir: got %s", got)
	}

	record := ProvisionRecord{
		Fingerprint:     fp,
		Interpreter:     "python3.9",
		InterpreterPath: "/usr/bin/python3.9",
		Deps:            []string{"pytest"},
		ProvisionedAt:   time.Now().UTC(),
	}
	if err := SaveRecord(envDir, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := Derive(envDir, fp); got != StateReady {
		t.Fatalf("matching record: got %s", got)
	}
	if got := Derive(envDir, "different"); got != StateStale {
		t.Fatalf("mismatched record: got %s", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	envDir := t.TempDir()
	record := ProvisionRecord{
		Fingerprint: "abc",
		Interpreter: "python3.11",
		Deps:        []string{"coverage"},
	}
	if err := SaveRecord(envDir, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadRecord(envDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Fingerprint != "abc" || loaded.Interpreter != "python3.11" {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
}
