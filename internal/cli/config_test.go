package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_ExplicitMissingPath(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for explicit missing config path")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ComponentName != "Model" {
		t.Errorf("ComponentName = %q, want Model", cfg.ComponentName)
	}
	if cfg.Precision != 2 {
		t.Errorf("Precision = %d, want 2", cfg.Precision)
	}
	if cfg.PrintWidth != 120 {
		t.Errorf("PrintWidth = %d, want 120", cfg.PrintWidth)
	}
	if cfg.Instancing != "none" {
		t.Errorf("Instancing = %q, want none", cfg.Instancing)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	content := `
component_name = "Spaceship"
types = true
precision = 4
instancing = "selective"
redis_url = "redis://localhost:6379/0"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.ComponentName != "Spaceship" {
		t.Errorf("ComponentName = %q, want Spaceship", cfg.ComponentName)
	}
	if !cfg.Types {
		t.Error("Types should be true")
	}
	if cfg.Precision != 4 {
		t.Errorf("Precision = %d, want 4", cfg.Precision)
	}
	if cfg.Instancing != "selective" {
		t.Errorf("Instancing = %q, want selective", cfg.Instancing)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}

	// Unset keys keep their defaults.
	if cfg.PrintWidth != 120 {
		t.Errorf("PrintWidth = %d, want default 120", cfg.PrintWidth)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("precision = \"not a number"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestCacheDir_Override(t *testing.T) {
	dir, err := cacheDir(Config{CacheDir: "/tmp/custom-cache"})
	if err != nil {
		t.Fatalf("cacheDir failed: %v", err)
	}
	if dir != "/tmp/custom-cache" {
		t.Errorf("dir = %q, want /tmp/custom-cache", dir)
	}

	dir, err = cacheDir(Config{})
	if err != nil {
		t.Fatalf("cacheDir failed: %v", err)
	}
	if filepath.Base(dir) != "sceneforge" {
		t.Errorf("default dir %q should end in sceneforge", dir)
	}
}
