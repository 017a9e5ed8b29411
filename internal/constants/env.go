// Where: internal/constants/env.go
// What: Environment variable naming constants.
// Why: Centralize environment variable names to avoid typos and inconsistencies.
package constants

const (
	// Host Configuration
	EnvEMXConfigPath = "EMX_CONFIG_PATH"
	EnvEMXConfigHome = "EMX_CONFIG_HOME"
	EnvEMXWorkDir    = "EMX_WORK_DIR"

	// Selection
	EnvEMXEnvList = "EMX_ENVLIST"

	// Variables exported into every spawned environment.
	EnvEMXEnvName = "EMX_ENV_NAME"
	EnvEMXEnvDir  = "EMX_ENV_DIR"

	// Suffixes used with envutil.HostEnvKey.
	HostSuffixConfigPath = "CONFIG_PATH"
	HostSuffixConfigHome = "CONFIG_HOME"
	HostSuffixWorkDir    = "WORK_DIR"
	HostSuffixEnvList    = "ENVLIST"
)
