package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Orchestration.MaxPerTask != 5 {
		t.Errorf("expected max_per_task 5, got %d", cfg.Orchestration.MaxPerTask)
	}
	if cfg.Orchestration.MaxPerSession != 20 {
		t.Errorf("expected max_per_session 20, got %d", cfg.Orchestration.MaxPerSession)
	}
	if cfg.Orchestration.CooldownSeconds != 60 {
		t.Errorf("expected cooldown 60, got %d", cfg.Orchestration.CooldownSeconds)
	}
	if cfg.Orchestration.MaxParallel != 3 {
		t.Errorf("expected max_parallel 3, got %d", cfg.Orchestration.MaxParallel)
	}
	if cfg.Orchestration.ContextThreshold != 0.5 {
		t.Errorf("expected context_threshold 0.5, got %f", cfg.Orchestration.ContextThreshold)
	}
	if cfg.Orchestration.ActiveTimeout != 0 {
		t.Errorf("expected reaper disabled by default, got %v", cfg.Orchestration.ActiveTimeout)
	}
	if cfg.Meter.WindowSize != 200000 {
		t.Errorf("expected window size 200000, got %d", cfg.Meter.WindowSize)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
orchestration:
  max_per_task: 2
  max_parallel: 7
  context_threshold: 0.75
  active_timeout: 30m
agent:
  model: claude-sonnet-4-20250514
  max_tokens: 2048
meter:
  window_size: 100000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Orchestration.MaxPerTask != 2 {
		t.Errorf("expected max_per_task 2, got %d", cfg.Orchestration.MaxPerTask)
	}
	if cfg.Orchestration.MaxParallel != 7 {
		t.Errorf("expected max_parallel 7, got %d", cfg.Orchestration.MaxParallel)
	}
	if cfg.Orchestration.ContextThreshold != 0.75 {
		t.Errorf("expected threshold 0.75, got %f", cfg.Orchestration.ContextThreshold)
	}
	if cfg.Orchestration.ActiveTimeout != 30*time.Minute {
		t.Errorf("expected active_timeout 30m, got %v", cfg.Orchestration.ActiveTimeout)
	}
	// Unset keys keep their defaults.
	if cfg.Orchestration.MaxPerSession != 20 {
		t.Errorf("expected default max_per_session, got %d", cfg.Orchestration.MaxPerSession)
	}
	if cfg.Agent.Model != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected model: %s", cfg.Agent.Model)
	}
	if cfg.Meter.WindowSize != 100000 {
		t.Errorf("expected window size 100000, got %d", cfg.Meter.WindowSize)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
