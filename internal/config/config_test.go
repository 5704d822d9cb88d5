package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"veriguard/internal/analysis"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint || cfg.Timeout != DefaultTimeout || cfg.Profile != DefaultProfile {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "endpoint: https://file.example/process\ntimeout: 40s\nprofile: work\nclear_input_on_error: true\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, envMap(map[string]string{EnvEndpoint: "https://env.example/process"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "https://env.example/process" {
		t.Fatalf("env should override file, got %s", cfg.Endpoint)
	}
	if cfg.Timeout != 40*time.Second || cfg.Profile != "work" || !cfg.ClearInputOnError {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timeout: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path, envMap(nil)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFinalizeDerivesPaths(t *testing.T) {
	home := filepath.Join(t.TempDir(), "data")
	cfg := Defaults()
	cfg.Home = home
	cfg.Profile = "work"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.DBPath != filepath.Join(home, "work.sqlite") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
	if cfg.ExportDir != filepath.Join(home, "exports") || cfg.LogPath != filepath.Join(home, "veriguard.log") {
		t.Fatalf("unexpected derived paths %+v", cfg)
	}
	if st, err := os.Stat(home); err != nil || !st.IsDir() {
		t.Fatalf("expected data dir to be created: %v", err)
	}
}

func TestFinalizeRejectsProfileWithPath(t *testing.T) {
	cfg := Defaults()
	cfg.Home = t.TempDir()
	cfg.Profile = "../escape"
	if err := cfg.Finalize(); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestDetectHomeFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	got, err := DetectHome("")
	if err != nil {
		t.Fatalf("detect home: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Fatalf("expected %s, got %s", dir, got)
	}
}

func TestFinalizeFillsEndpointFromClientDefault(t *testing.T) {
	cfg := Defaults()
	cfg.Endpoint = ""
	cfg.Home = t.TempDir()
	cfg.Ephemeral = true
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Endpoint != analysis.DefaultEndpoint {
		t.Fatalf("expected the analysis client default, got %q", cfg.Endpoint)
	}
}
