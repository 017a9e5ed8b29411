// Where: internal/state/state.go
// What: Environment lifecycle state and provision records.
// Why: Re-provisioning is skipped only when the recorded fingerprint still matches.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/envmatrix/emx/internal/meta"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateStale         State = "stale"
	StateReady         State = "ready"
)

// ProvisionRecord is written into the environment directory after a
// successful provision.
type ProvisionRecord struct {
	Fingerprint     string    `json:"fingerprint"`
	Interpreter     string    `json:"interpreter"`
	InterpreterPath string    `json:"interpreter_path"`
	Deps            []string  `json:"deps"`
	ProvisionedAt   time.Time `json:"provisioned_at"`
}

// Fingerprint hashes the inputs that require a re-provision when changed:
// the interpreter executable and the dependency set. Dependency order is
// irrelevant.
func Fingerprint(interpreterPath string, deps []string) string {
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	h := sha256.New()
	fmt.Fprintln(h, interpreterPath)
	for _, dep := range sorted {
		fmt.Fprintln(h, strings.TrimSpace(dep))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Derive reports the lifecycle state of an environment directory against
// the desired fingerprint.
func Derive(envDir, fingerprint string) State {
	record, err := LoadRecord(envDir)
	if err != nil {
		return StateUninitialized
	}
	if record.Fingerprint != fingerprint {
		return StateStale
	}
	return StateReady
}

func recordPath(envDir string) string {
	return filepath.Join(envDir, meta.ProvisionRecordFile)
}

// LoadRecord reads the provision record of an environment directory.
func LoadRecord(envDir string) (ProvisionRecord, error) {
	payload, err := os.ReadFile(recordPath(envDir))
	if err != nil {
		return ProvisionRecord{}, err
	}
	var record ProvisionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return ProvisionRecord{}, fmt.Errorf("provision record %s: %w", recordPath(envDir), err)
	}
	return record, nil
}

// SaveRecord writes the provision record of an environment directory.
func SaveRecord(envDir string, record ProvisionRecord) error {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(envDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(recordPath(envDir), payload, 0o644)
}
