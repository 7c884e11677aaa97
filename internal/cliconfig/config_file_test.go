package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	zero := 0
	seven := 7
	negative := -1

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Path:            "/var/log/sip/clf.log",
				Name:            "sip",
				Separator:       "_",
				Extension:       ".clf",
				Synchronous:     &trueVal,
				ShutdownTimeout: "10s",
				RetentionDays:   &seven,
				CleanupInterval: "1h",
				LogLevel:        "debug",
				LogFile:         "/var/log/clflog/app.log",
				LogUDP:          "127.0.0.1:10001",
				Listen:          "0.0.0.0:5090",
			},
			changed: map[string]bool{},
			initial: DefaultConfig(),
			expected: Config{
				Path:            "/var/log/sip/clf.log",
				Name:            "sip",
				Separator:       "_",
				Extension:       ".clf",
				Synchronous:     true,
				ShutdownTimeout: 10 * time.Second,
				RetentionDays:   7,
				CleanupInterval: time.Hour,
				LogLevel:        "debug",
				LogFile:         "/var/log/clflog/app.log",
				LogUDP:          "127.0.0.1:10001",
				Listen:          "0.0.0.0:5090",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Path:          "/config/path",
				RetentionDays: &seven,
			},
			changed: map[string]bool{"path": true},
			initial: Config{Path: "/flag/path", RetentionDays: 30},
			expected: Config{
				Path:          "/flag/path", // unchanged because flag was set
				RetentionDays: 7,
			},
		},
		{
			name:       "zero retention disables cleanup",
			fileConfig: FileConfig{RetentionDays: &zero},
			changed:    map[string]bool{},
			initial:    Config{RetentionDays: 30},
			expected:   Config{RetentionDays: 0},
		},
		{
			name:       "absent retention keeps default",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{RetentionDays: 30},
			expected:   Config{RetentionDays: 30},
		},
		{
			name:       "returns error for negative retention",
			fileConfig: FileConfig{RetentionDays: &negative},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{CleanupInterval: "daily"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"clflog.toml": `
path = "/var/log/sip"
retention_days = 0
cleanup_interval = "6h"
synchronous = true
`,
		"clflog.yaml": `
path: /var/log/sip
retention_days: 0
cleanup_interval: 6h
synchronous: true
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, name)
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			fc, err := LoadFileConfig(configPath)
			if err != nil {
				t.Fatalf("LoadFileConfig() error = %v", err)
			}
			if fc.Path != "/var/log/sip" {
				t.Errorf("Path = %v, want /var/log/sip", fc.Path)
			}
			if fc.RetentionDays == nil || *fc.RetentionDays != 0 {
				t.Errorf("RetentionDays = %v, want 0", fc.RetentionDays)
			}
			if fc.CleanupInterval != "6h" {
				t.Errorf("CleanupInterval = %v, want 6h", fc.CleanupInterval)
			}
			if fc.Synchronous == nil || !*fc.Synchronous {
				t.Errorf("Synchronous = %v, want true", fc.Synchronous)
			}
		})
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"invalid.toml": "path = \"/test\"\nthis is not valid toml\n",
		"invalid.yml":  "path: [unclosed\n",
		"unknown.yaml": "path: /test\nnode_home: /root\n",
	}
	for name, content := range files {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test config file: %v", err)
		}
		if _, err := LoadFileConfig(configPath); err == nil {
			t.Errorf("LoadFileConfig(%s) expected error", name)
		}
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .clflog
	if path != "" && !strings.Contains(path, ".clflog") {
		t.Errorf("DefaultConfigPath() = %v, should contain .clflog", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(existingFile, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "missing.txt")) {
		t.Error("FileExists() = true for missing file")
	}
}
