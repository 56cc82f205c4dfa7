package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "desk")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "desk" || s.Port != 9000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidation(t *testing.T) {
	p := writeFile(t, "name: x\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptionalMissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found {
		t.Error("found should be false for a missing file")
	}
	if s.Name != "default" {
		t.Errorf("defaults overwritten: %+v", s)
	}
}

func TestLoadOptionalOverlaysFile(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	p := writeFile(t, "port: 9090\n")
	found, err := LoadOptional(p, &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if !found || s.Port != 9090 || s.Name != "default" {
		t.Errorf("found=%v s=%+v", found, s)
	}
}
