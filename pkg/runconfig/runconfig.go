// Package runconfig loads the run's configuration document: the source of
// every step's init-arg values (spec.md §4.5) and, for the CLI, the
// namespace list and worker count a run targets.
//
// Grounded on the teacher's pkg/config: file loading
// (gopkg.in/yaml.v3, github.com/pelletier/go-toml/v2), Sprig-enabled
// text/template rendering before parsing (mirroring
// pkg/step/etcd/generate_etcd_config_step.go's template.New(...).Funcs
// (sprig.TxtFuncMap())), defaults-then-overrides merging
// (dario.cat/mergo, mirroring pkg/step/docker/configure_docker.go's layered
// config merge), and hand-rolled shape validation
// (pkg/config/validate.go's style, since no struct-tag validator appears
// anywhere in the teacher's stack).
package runconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"dario.cat/mergo"
	"github.com/Masterminds/sprig/v3"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Document is a run's fully-resolved configuration: the namespace list and
// worker count the CLI reads before planning, plus the flat config map
// every step's init args are projected from.
type Document struct {
	StepNamespaces []string               `yaml:"step_namespaces" toml:"step_namespaces"`
	Jobs           int                    `yaml:"jobs" toml:"jobs"`
	FinalSteps     []string               `yaml:"final_steps" toml:"final_steps"`
	Config         map[string]interface{} `yaml:"config" toml:"config"`
}

// Load reads path, renders it through a Sprig-enabled text/template (so
// values can reference environment variables or Sprig helpers like
// default/upper/trimSuffix before the document is parsed), and unmarshals
// the result as YAML or TOML depending on the file extension.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	rendered, err := render(string(raw))
	if err != nil {
		return nil, fmt.Errorf("render config %s: %w", path, err)
	}

	doc := &Document{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(rendered, doc); err != nil {
			return nil, fmt.Errorf("parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(rendered, doc); err != nil {
			return nil, fmt.Errorf("parse YAML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unrecognized config extension %q for %s", ext, path)
	}

	if doc.Config == nil {
		doc.Config = map[string]interface{}{}
	}
	return doc, nil
}

func render(raw string) ([]byte, error) {
	tmpl, err := template.New("runconfig").Funcs(sprig.TxtFuncMap()).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap()); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// envMap exposes the process environment to config templates as
// {{.Env.SOME_VAR}}.
func envMap() map[string]interface{} {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return map[string]interface{}{"Env": env}
}

// Merge overlays override on top of base, returning a new map; override's
// values win on key collision, matching mergo.WithOverride's semantics as
// the teacher's configure_docker.go applies it to layered docker config.
func Merge(base, override map[string]interface{}) (map[string]interface{}, error) {
	merged := map[string]interface{}{}
	for k, v := range base {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge config: %w", err)
	}
	return merged, nil
}

// Validate checks the shape every caller needs before planning: at least
// one step namespace and a non-empty final-steps list. Per-key config
// validation is left to individual step constructors, which already
// surface ArgumentInvalid on malformed input (spec.md §7).
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("config document is nil")
	}
	if len(doc.StepNamespaces) == 0 {
		return fmt.Errorf("config: step_namespaces must not be empty")
	}
	if len(doc.FinalSteps) == 0 {
		return fmt.Errorf("config: final_steps must not be empty")
	}
	if doc.Jobs < 0 {
		return fmt.Errorf("config: jobs must be >= 0, got %d", doc.Jobs)
	}
	return nil
}
