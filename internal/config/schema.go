// Where: internal/config/schema.go
// What: Schema validation for resolved matrix tables and the global config.
// Why: Catch structural drift before it reaches the provisioner.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/envmatrix/emx/internal/matrix"
)

//go:embed schema/*.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

const (
	matrixSchemaName = "matrix.schema.json"
	globalSchemaName = "global.schema.json"
)

// ValidateResolved checks the resolved environment table against the
// embedded matrix schema.
func ValidateResolved(defs []matrix.EnvDefinition) error {
	sch, err := loadSchema(matrixSchemaName)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(resolvedView(defs))
	if err != nil {
		return fmt.Errorf("marshal resolved table: %w", err)
	}
	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("unmarshal resolved table: %w", err)
	}
	if err := sch.Validate(document); err != nil {
		return fmt.Errorf("resolved table: %w", err)
	}
	return nil
}

// ValidateGlobalConfig checks a global config yaml document against the
// embedded schema.
func ValidateGlobalConfig(payload []byte) error {
	sch, err := loadSchema(globalSchemaName)
	if err != nil {
		return err
	}

	jsonData, err := sigsyaml.YAMLToJSON(payload)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}
	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := sch.Validate(document); err != nil {
		return fmt.Errorf("global config: %w", err)
	}
	return nil
}

func loadSchema(name string) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemas = map[string]*jsonschema.Schema{}
		for _, file := range []string{matrixSchemaName, globalSchemaName} {
			payload, err := schemaFS.ReadFile("schema/" + file)
			if err != nil {
				schemaErr = err
				return
			}
			compiler := jsonschema.NewCompiler()
			if err := compiler.AddResource(file, bytes.NewReader(payload)); err != nil {
				schemaErr = err
				return
			}
			schemas[file], schemaErr = compiler.Compile(file)
			if schemaErr != nil {
				return
			}
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	return schemas[name], nil
}

type envView struct {
	Name        string     `json:"name"`
	Interpreter string     `json:"interpreter"`
	EnvDir      string     `json:"envdir"`
	WorkDir     string     `json:"workdir"`
	Deps        []string   `json:"deps"`
	SetEnv      [][]string `json:"setenv"`
	PassEnv     []string   `json:"passenv"`
	Commands    [][]string `json:"commands"`
	Isolation   string     `json:"isolation"`
	Image       string     `json:"image,omitempty"`
}

func resolvedView(defs []matrix.EnvDefinition) []envView {
	out := make([]envView, 0, len(defs))
	for _, def := range defs {
		view := envView{
			Name:        def.Name,
			Interpreter: def.Interpreter,
			EnvDir:      def.EnvDir,
			WorkDir:     def.WorkDir,
			Deps:        []string{},
			SetEnv:      [][]string{},
			PassEnv:     def.PassEnv,
			Commands:    def.Commands,
			Isolation:   def.Isolation,
			Image:       def.Image,
		}
		for _, dep := range def.Deps {
			view.Deps = append(view.Deps, dep.String())
		}
		for _, kv := range def.SetEnv {
			view.SetEnv = append(view.SetEnv, []string{kv.Key, kv.Value})
		}
		out = append(out, view)
	}
	return out
}
