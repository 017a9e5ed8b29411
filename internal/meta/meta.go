// Where: internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep branding and directory layout in one place.
package meta

const (
	// Project Identity
	AppName   = "emx"
	Slug      = "emx"
	EnvPrefix = "EMX"

	// Directory Layout
	HomeDir = ".emx"
	WorkDir = ".emx"
	VenvDir = "venv"

	// Matrix file discovered in the project directory.
	MatrixFileName = "emx.ini"

	// Record written into each environment directory after provisioning.
	ProvisionRecordFile = "provision.json"

	// Default filename for rendered run reports.
	ReportFile = "report.md"
)
