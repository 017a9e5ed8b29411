// Where: internal/report/render.go
// What: Markdown run report rendering.
// Why: CI jobs archive a readable artifact per run.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	reportTemplateOnce sync.Once
	reportTemplate     *template.Template
	reportTemplateErr  error
)

func loadTemplate() (*template.Template, error) {
	reportTemplateOnce.Do(func() {
		reportTemplate, reportTemplateErr = template.New("report.md.tmpl").
			Funcs(sprig.FuncMap()).
			ParseFS(templateFS, "templates/report.md.tmpl")
	})
	return reportTemplate, reportTemplateErr
}

// Render produces the markdown report for a run.
func Render(r Results) ([]byte, error) {
	tmpl, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("load report template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report and writes it to path, creating parent
// directories as needed.
func Write(path string, r Results) error {
	payload, err := Render(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
