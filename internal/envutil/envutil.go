// Package envutil provides helper functions for environment variable handling.
package envutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HostEnvKey constructs a host-level environment variable name
// by combining ENV_PREFIX with the given suffix.
// Example: HostEnvKey("ENVLIST") returns "EMX_ENVLIST" when ENV_PREFIX=EMX
func HostEnvKey(suffix string) string {
	prefix := strings.TrimSpace(os.Getenv("ENV_PREFIX"))
	if prefix == "" {
		prefix = "EMX" // Fallback default
	}
	return prefix + "_" + suffix
}

// GetHostEnv retrieves a host-level environment variable.
// Example: GetHostEnv("ENVLIST") returns the value of EMX_ENVLIST
func GetHostEnv(suffix string) string {
	return os.Getenv(HostEnvKey(suffix))
}

// SetHostEnv sets a host-level environment variable.
func SetHostEnv(suffix, value string) {
	_ = os.Setenv(HostEnvKey(suffix), value)
}

// Merge combines environment maps into a sorted KEY=VALUE slice suitable
// for exec.Cmd.Env. Later maps override earlier ones.
func Merge(maps ...map[string]string) []string {
	merged := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}

// FromOS converts os.Environ() style KEY=VALUE pairs into a map.
func FromOS(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		out[pair[:idx]] = pair[idx+1:]
	}
	return out
}

// FilterGlob returns the subset of env whose keys match any of the given
// glob patterns (filepath.Match syntax, e.g. "CI_*").
func FilterGlob(env map[string]string, patterns []string) map[string]string {
	out := map[string]string{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		for k, v := range env {
			if ok, err := filepath.Match(pattern, k); err == nil && ok {
				out[k] = v
			}
		}
	}
	return out
}
