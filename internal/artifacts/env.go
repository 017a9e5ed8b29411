// Where: internal/artifacts/env.go
// What: AWS credential lookup from the host environment.
// Why: CI jobs inject credentials as variables, not files.
package artifacts

import "os"

func awsEnvCredentials() (id, secret string) {
	return os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
}
