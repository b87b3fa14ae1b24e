package vm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != SwitchDirect || cfg.MaxFrames != 2048 || cfg.TraceExecution {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kava.toml")
	content := `
mode = "speculative"
max_frames = 128
trace_execution = true
store_path = "/tmp/kava-store.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != SwitchSpeculative {
		t.Errorf("mode = %s, want speculative", cfg.Mode)
	}
	if cfg.MaxFrames != 128 {
		t.Errorf("max_frames = %d, want 128", cfg.MaxFrames)
	}
	if !cfg.TraceExecution {
		t.Errorf("trace_execution = false, want true")
	}
	if cfg.StorePath != "/tmp/kava-store.db" {
		t.Errorf("store_path = %s", cfg.StorePath)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kava.toml")
	if err := os.WriteFile(path, []byte(`mode = "warp"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("unknown mode accepted")
	}
}

func TestLoadConfigRejectsBadFrameCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kava.toml")
	if err := os.WriteFile(path, []byte("max_frames = -1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("negative frame cap accepted")
	}
}
