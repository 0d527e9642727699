package runconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "run.yaml", `
step_namespaces: ["ns"]
jobs: 4
final_steps: ["Deploy"]
config:
  region: us-east-1
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Jobs != 4 || len(doc.StepNamespaces) != 1 || doc.StepNamespaces[0] != "ns" {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Config["region"] != "us-east-1" {
		t.Fatalf("Config[region] = %v, want us-east-1", doc.Config["region"])
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeTemp(t, "run.toml", `
step_namespaces = ["ns"]
jobs = 2
final_steps = ["Deploy"]

[config]
region = "eu-west-1"
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Jobs != 2 || doc.Config["region"] != "eu-west-1" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestLoadRendersSprigTemplate(t *testing.T) {
	path := writeTemp(t, "run.yaml", `
step_namespaces: ["ns"]
final_steps: ["Deploy"]
config:
  name: {{ "hello" | upper }}
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Config["name"] != "HELLO" {
		t.Fatalf("Config[name] = %v, want HELLO", doc.Config["name"])
	}
}

func TestLoadRendersEnvVar(t *testing.T) {
	t.Setenv("STEPRUNNER_TEST_REGION", "ap-south-1")
	path := writeTemp(t, "run.yaml", `
step_namespaces: ["ns"]
final_steps: ["Deploy"]
config:
  region: {{ .Env.STEPRUNNER_TEST_REGION }}
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Config["region"] != "ap-south-1" {
		t.Fatalf("Config[region] = %v, want ap-south-1", doc.Config["region"])
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeTemp(t, "run.ini", "step_namespaces = ns")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized config extension")
	}
}

func TestMergeOverrideWins(t *testing.T) {
	base := map[string]interface{}{"region": "us-east-1", "replicas": 3}
	override := map[string]interface{}{"region": "eu-west-1"}
	merged, err := Merge(base, override)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged["region"] != "eu-west-1" {
		t.Fatalf("merged[region] = %v, want eu-west-1 (override must win)", merged["region"])
	}
	if merged["replicas"] != 3 {
		t.Fatalf("merged[replicas] = %v, want 3 (kept from base)", merged["replicas"])
	}
}

func TestValidateRejectsEmptyNamespaces(t *testing.T) {
	err := Validate(&Document{FinalSteps: []string{"Deploy"}})
	if err == nil {
		t.Fatal("expected an error for empty step_namespaces")
	}
}

func TestValidateRejectsEmptyFinalSteps(t *testing.T) {
	err := Validate(&Document{StepNamespaces: []string{"ns"}})
	if err == nil {
		t.Fatal("expected an error for empty final_steps")
	}
}

func TestValidateRejectsNegativeJobs(t *testing.T) {
	err := Validate(&Document{StepNamespaces: []string{"ns"}, FinalSteps: []string{"Deploy"}, Jobs: -1})
	if err == nil {
		t.Fatal("expected an error for a negative jobs count")
	}
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	err := Validate(&Document{StepNamespaces: []string{"ns"}, FinalSteps: []string{"Deploy"}, Jobs: 0})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
