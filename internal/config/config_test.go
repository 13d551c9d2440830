package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lifeos/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.BaseURL != config.DefaultBaseURL {
		t.Errorf("expected base url %q, got %q", config.DefaultBaseURL, cfg.BaseURL)
	}
	if cfg.StatePath() != filepath.Join(dir, "state") {
		t.Errorf("unexpected state path %q", cfg.StatePath())
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "lifeos") {
		t.Errorf("unexpected default dir %q", got)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	body := "base_url: http://example.test/api/v1/\ntimeout: 2s\ntoast_display: 1s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFEOS_TOAST_COOLDOWN", "50ms")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://example.test/api/v1" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", cfg.Timeout)
	}
	if cfg.ToastDisplay != time.Second {
		t.Errorf("expected toast display 1s, got %v", cfg.ToastDisplay)
	}
	if cfg.ToastCooldown != 50*time.Millisecond {
		t.Errorf("expected env override 50ms, got %v", cfg.ToastCooldown)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestYAML(t *testing.T) {
	cfg, _ := config.New(t.TempDir())
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if !strings.Contains(string(out), "base_url: "+config.DefaultBaseURL) {
		t.Errorf("expected base_url in output, got:\n%s", out)
	}
}
