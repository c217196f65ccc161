package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Costing.SafetyMultiplier != 1.05 {
		t.Errorf("expected default multiplier 1.05, got %v", cfg.Costing.SafetyMultiplier)
	}
	if len(cfg.Costing.SafetyPresets) != 4 {
		t.Errorf("expected 4 presets, got %v", cfg.Costing.SafetyPresets)
	}
	if cfg.Costing.RunCacheTTL != 10*time.Minute {
		t.Errorf("expected 10m run cache ttl, got %v", cfg.Costing.RunCacheTTL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9090
database:
  host: db.internal
  dbname: bakery
costing:
  safety_multiplier: 1.10
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("DB_HOST", "10.0.0.8")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "10.0.0.8" {
		t.Errorf("expected env override for db host, got %q", cfg.Database.Host)
	}
	if cfg.Database.DBName != "bakery" {
		t.Errorf("expected dbname from file, got %q", cfg.Database.DBName)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Errorf("expected jwt secret from env, got %q", cfg.JWT.Secret)
	}
	if cfg.Costing.SafetyMultiplier != 1.10 {
		t.Errorf("expected multiplier 1.10, got %v", cfg.Costing.SafetyMultiplier)
	}
}

func TestLoadRejectsNonPositiveMultiplier(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SAFETY_MULTIPLIER", "0")

	if _, err := Load(); !errors.Is(err, ErrInvalidMultiplier) {
		t.Fatalf("expected ErrInvalidMultiplier, got %v", err)
	}
}

func TestCostingValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  CostingConfig
		ok   bool
	}{
		{"default", CostingConfig{SafetyMultiplier: 1.05, SafetyPresets: []float64{1, 1.05}}, true},
		{"negative", CostingConfig{SafetyMultiplier: -1}, false},
		{"bad preset", CostingConfig{SafetyMultiplier: 1, SafetyPresets: []float64{1, 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
