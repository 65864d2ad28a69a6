package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
version: "1"
mode: dev
addr: ":9090"

database:
  user: app
  password: pw
  host: db.internal
  port: 3307
  dbname: library

auth:
  jwt_secret: s3cret
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != "dev" || cfg.Addr != ":9090" {
		t.Errorf("mode/addr = %q/%q", cfg.Mode, cfg.Addr)
	}
	if cfg.DB.Host != "db.internal" || cfg.DB.Port != 3307 || cfg.DB.DBName != "library" {
		t.Errorf("db config = %+v", cfg.DB)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt_secret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadConfigDefaultAddr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("mode: release\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want default :8080", cfg.Addr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
