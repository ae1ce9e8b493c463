package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name" env:"CONFIG_TEST_NAME"`
	Port  int    `yaml:"port" env:"CONFIG_TEST_PORT"`
	Inner struct {
		Path string `yaml:"path" env:"CONFIG_TEST_INNER_PATH"`
	} `yaml:"inner"`
}

func (c *testConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsVariables(t *testing.T) {
	t.Setenv("CONFIG_TEST_EXPANDED", "from-env")
	p := writeFile(t, "name: ${CONFIG_TEST_EXPANDED}\nport: 8080\ninner:\n  path: /data\n")

	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" || cfg.Port != 8080 || cfg.Inner.Path != "/data" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_TEST_PORT", "9090")
	t.Setenv("CONFIG_TEST_INNER_PATH", "/override")
	p := writeFile(t, "name: file\nport: 8080\ninner:\n  path: /data\n")

	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.Inner.Path != "/override" || cfg.Name != "file" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")
	var cfg testConfig
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("CONFIG_TEST_PORT", "not-an-int")
	p := writeFile(t, "port: 1\n")
	var cfg testConfig
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v, want parse env error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "env-name")
	cfg := testConfig{Port: 7000}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Port != 7000 || cfg.Name != "env-name" {
		t.Errorf("cfg = %+v", cfg)
	}
}
