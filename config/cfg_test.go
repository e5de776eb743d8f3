package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Merge.FragmentPrefix != "bootstrap." {
		t.Errorf("FragmentPrefix = %q, want bootstrap.", cfg.Merge.FragmentPrefix)
	}
	if cfg.Merge.XMLIndent != 2 {
		t.Errorf("XMLIndent = %d, want 2", cfg.Merge.XMLIndent)
	}
	if !IsSecretName("wifi.psk", cfg.Merge.SecretKeys) {
		t.Error("Default secret patterns do not cover wifi.psk")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
merge:
  fragment_prefix: "override."
  xml_indent: 4
  encoding: latin1
  secret_keys: ["token"]
logging:
  console:
    level: debug
  file:
    level: normal
    destination: ` + filepath.Join(tmpDir, "test.log") + `
    mode: overwrite
reporting:
  destination: ` + filepath.Join(tmpDir, "report.zip") + `
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Merge.FragmentPrefix != "override." {
		t.Errorf("FragmentPrefix = %q, want override.", cfg.Merge.FragmentPrefix)
	}
	if cfg.Merge.XMLIndent != 4 {
		t.Errorf("XMLIndent = %d, want 4", cfg.Merge.XMLIndent)
	}
	if cfg.Merge.Encoding != "latin1" {
		t.Errorf("Encoding = %q, want latin1", cfg.Merge.Encoding)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
	if cfg.Logging.FileLogger.Mode != "overwrite" {
		t.Errorf("File mode = %q, want overwrite", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("version: 1\nbogus: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfiguration(configPath); err == nil {
		t.Fatal("LoadConfiguration() with unknown field expected error, got nil")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"version: 1", "merge:", "fragment_prefix: bootstrap.", "logging:", "reporting:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q:\n%s", want, out)
		}
	}
}

func TestIsSecretName(t *testing.T) {
	patterns := []string{"psk", "password"}

	tests := []struct {
		name string
		want bool
	}{
		{"wifi.psk", true},
		{"WIFI.PSK", true},
		{"admin.password", true},
		{"wifi.ssid", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSecretName(tt.name, patterns); got != tt.want {
			t.Errorf("IsSecretName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if IsSecretName("anything", nil) {
		t.Error("IsSecretName() with no patterns should be false")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("keyvalue"); err != nil || f != FormatKeyvalue {
		t.Errorf("ParseFormat(keyvalue) = %v, %v", f, err)
	}
	if f, err := ParseFormat("xml"); err != nil || f != FormatXml {
		t.Errorf("ParseFormat(xml) = %v, %v", f, err)
	}
	if _, err := ParseFormat("ini"); err == nil {
		t.Error("ParseFormat(ini) expected error, got nil")
	}
}
