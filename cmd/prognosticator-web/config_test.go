package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

func TestLoadWebConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yml")
	content := "listen-addr: 0.0.0.0:9090\nhistory-enabled: false\ndb-path: ~/data/h.duckdb\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadWebConfig(path)
	if err != nil {
		t.Fatalf("loadWebConfig: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9090" {
		t.Fatalf("listen-addr = %q", cfg.ListenAddr)
	}
	if cfg.HistoryEnabled {
		t.Fatal("history-enabled should be false")
	}
	if want := filepath.Join(home, "data", "h.duckdb"); cfg.DBPath != want {
		t.Fatalf("db-path = %q, want %q", cfg.DBPath, want)
	}
	if cfg.Endpoint != model.DefaultEndpoint {
		t.Fatalf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("config path = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadWebConfig_InvalidListenAddr(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROGNOSTICATOR_LISTEN_ADDR", "nonsense")

	if _, err := loadWebConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for invalid listen-addr")
	}
}
