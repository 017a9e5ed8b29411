// Where: internal/config/matrix.go
// What: Matrix file loader.
// Why: Parse the section/key matrix file into a raw source for resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/envmatrix/emx/internal/matrix"
	"github.com/envmatrix/emx/internal/meta"
)

// MatrixFilePath returns the matrix file to load: an explicit override
// when given, otherwise emx.ini in the project directory.
func MatrixFilePath(projectDir, override string) string {
	if strings.TrimSpace(override) != "" {
		if filepath.IsAbs(override) {
			return override
		}
		return filepath.Join(projectDir, override)
	}
	return filepath.Join(projectDir, meta.MatrixFileName)
}

// LoadMatrixFile reads a matrix file into a raw section/key source.
// Multi-line values keep their indented continuation lines.
func LoadMatrixFile(path string) (*matrix.Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("matrix file %s: %w", path, err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("matrix file %s: %w", path, err)
	}

	src := &matrix.Source{
		Path:     path,
		Sections: map[string]map[string]string{},
	}
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		keys := map[string]string{}
		for _, key := range section.Keys() {
			keys[key.Name()] = key.Value()
		}
		src.Sections[name] = keys
	}

	if _, ok := src.Sections[matrix.SectionMatrix]; !ok {
		return nil, fmt.Errorf("matrix file %s: missing [%s] section", path, matrix.SectionMatrix)
	}
	return src, nil
}
