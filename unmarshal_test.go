package vmdl

import (
	"strings"
	"testing"
	"time"
)

type environment struct {
	Route    string `vmdl:"Route"`
	Replicas int    `vmdl:"Replicas"`
}

type projectConfig struct {
	Project      string                 `vmdl:"Project,required"`
	Route        string                 // matched by field name
	Debug        bool                   `vmdl:"debug"`
	Timeout      time.Duration          `vmdl:"timeout"`
	Ratio        float64                `vmdl:"ratio"`
	Workers      uint8                  `vmdl:"workers"`
	Owner        *string                `vmdl:"owner"`
	Environments map[string]environment `vmdl:"Environments"`
	Database     struct {
		Host string
		Port int
	}
	Extra    any    `vmdl:"extra"`
	Ignored  string `vmdl:"-"`
	internal string
}

const projectDoc = `Project = demo
route = /api/v1
debug = yes
timeout = 1m30s
ratio = 0.75
workers = 8
owner: ops
extra.a = 1
Ignored = nope
Environments.Staging.Route = /staging
Environments.Staging.Replicas = 2
Environments.Production.Route = /prod
Database:
Host = localhost
Port = 5432
`

func TestUnmarshal(t *testing.T) {
	var cfg projectConfig
	if err := Unmarshal([]byte(projectDoc), &cfg); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	if cfg.Project != "demo" {
		t.Errorf("Expected Project 'demo', got %q", cfg.Project)
	}
	if cfg.Route != "/api/v1" {
		t.Errorf("Expected Route '/api/v1' via case-insensitive match, got %q", cfg.Route)
	}
	if !cfg.Debug {
		t.Error("Expected Debug true")
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Expected Timeout 1m30s, got %v", cfg.Timeout)
	}
	if cfg.Ratio != 0.75 {
		t.Errorf("Expected Ratio 0.75, got %v", cfg.Ratio)
	}
	if cfg.Workers != 8 {
		t.Errorf("Expected Workers 8, got %d", cfg.Workers)
	}
	if cfg.Owner == nil || *cfg.Owner != "ops" {
		t.Errorf("Expected Owner 'ops', got %v", cfg.Owner)
	}
	if cfg.Ignored != "" {
		t.Errorf("Expected Ignored to stay empty, got %q", cfg.Ignored)
	}

	if len(cfg.Environments) != 2 {
		t.Fatalf("Expected 2 environments, got %d", len(cfg.Environments))
	}
	if cfg.Environments["Staging"].Replicas != 2 {
		t.Errorf("Expected Staging replicas 2, got %d", cfg.Environments["Staging"].Replicas)
	}
	if cfg.Environments["Production"].Route != "/prod" {
		t.Errorf("Expected Production route '/prod', got %q", cfg.Environments["Production"].Route)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("Expected localhost:5432, got %s:%d", cfg.Database.Host, cfg.Database.Port)
	}

	extra, ok := cfg.Extra.(map[string]any)
	if !ok || extra["a"] != "1" {
		t.Errorf("Expected extra map with a=1, got %#v", cfg.Extra)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  any
		message string
	}{
		{"required missing", "route = /x", &projectConfig{}, "required field Project not found"},
		{"bad int", "Project = p\nDatabase.Port = many", &projectConfig{}, "field Database"},
		{"bad bool", "Project = p\ndebug = maybe", &projectConfig{}, "invalid bool value"},
		{"overflow", "Project = p\nworkers = 300", &projectConfig{}, "cannot parse as uint"},
		{"container into string", "Project.name = p", &projectConfig{}, "expected a value, got container"},
		{"leaf into map", "Project = p\nEnvironments = none", &projectConfig{}, "cannot convert leaf to map"},
		{"parse error", "nonsense", &projectConfig{}, "Invalid line format"},
		{"not a pointer", "Project = p", projectConfig{}, "non-nil pointer"},
		{"not a struct", "Project = p", new(string), "pointer to struct"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Unmarshal([]byte(test.input), test.target)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), test.message) {
				t.Errorf("Expected error containing %q, got %q", test.message, err.Error())
			}
		})
	}
}

func TestUnmarshalValue_LeafRoot(t *testing.T) {
	var cfg projectConfig
	if err := UnmarshalValue(Leaf("x"), &cfg); err == nil {
		t.Error("Expected error for leaf root")
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		ok       bool
	}{
		{"true", true, true},
		{"On", true, true},
		{"1", true, true},
		{"no", false, true},
		{"OFF", false, true},
		{"perhaps", false, false},
	}

	for _, test := range tests {
		got, err := parseBool(test.input)
		if (err == nil) != test.ok {
			t.Errorf("parseBool(%q): unexpected error state %v", test.input, err)
			continue
		}
		if got != test.expected {
			t.Errorf("parseBool(%q): expected %v, got %v", test.input, test.expected, got)
		}
	}
}
