package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContentDir != "content" {
		t.Errorf("content dir = %q, want content", cfg.ContentDir)
	}
	if cfg.ChangelogPath != "CHANGELOG.md" {
		t.Errorf("changelog path = %q", cfg.ChangelogPath)
	}
	if cfg.Driver != "pgx" {
		t.Errorf("driver = %q, want pgx", cfg.Driver)
	}
	if cfg.BatchSize != 50 || cfg.Workers != 4 {
		t.Errorf("batch/workers = %d/%d, want 50/4", cfg.BatchSize, cfg.Workers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-url")
	t.Setenv("CONTENT_DIR", "site/content")
	t.Setenv("CSYNC_DRIVER", "sqlite3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env-url" {
		t.Errorf("database url = %q", cfg.DatabaseURL)
	}
	if cfg.ContentDir != "site/content" {
		t.Errorf("content dir = %q", cfg.ContentDir)
	}
	if cfg.Driver != "sqlite3" {
		t.Errorf("driver = %q", cfg.Driver)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csync.yaml")
	body := "content_dir: my-content\nbatch_size: 10\nworkers: 2\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContentDir != "my-content" || cfg.BatchSize != 10 || cfg.Workers != 2 {
		t.Errorf("config file values not applied: %+v", cfg)
	}
	// Values the file doesn't set keep their defaults.
	if cfg.Driver != "pgx" {
		t.Errorf("driver = %q, want pgx", cfg.Driver)
	}
}

func TestLoadMissingNamedConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicitly named missing config file should error")
	}
}

func TestResolveDatabaseURL(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{DatabaseURL: "postgres://direct"}
	url, err := cfg.ResolveDatabaseURL(ctx)
	if err != nil {
		t.Fatalf("ResolveDatabaseURL: %v", err)
	}
	if url != "postgres://direct" {
		t.Errorf("url = %q", url)
	}
}

func TestResolveDatabaseURLSecretCommand(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{SecretCommand: "echo postgres://from-secret"}
	url, err := cfg.ResolveDatabaseURL(ctx)
	if err != nil {
		t.Fatalf("ResolveDatabaseURL: %v", err)
	}
	if url != "postgres://from-secret" {
		t.Errorf("url = %q", url)
	}
}

func TestResolveDatabaseURLSecretCommandFails(t *testing.T) {
	cfg := &Config{SecretCommand: "false"}
	if _, err := cfg.ResolveDatabaseURL(context.Background()); err == nil {
		t.Error("failing secret command should error")
	}
}

func TestResolveDatabaseURLBlankSecretCommand(t *testing.T) {
	cfg := &Config{SecretCommand: "   "}
	if _, err := cfg.ResolveDatabaseURL(context.Background()); err == nil {
		t.Error("whitespace-only secret command should error, not run")
	}
}

func TestResolveDatabaseURLNothingConfigured(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.ResolveDatabaseURL(context.Background()); err == nil {
		t.Error("expected error when neither url nor secret command is set")
	}
}

func TestChangedDeletedFiles(t *testing.T) {
	t.Setenv("CHANGED_FILES", "content/agents/a.json content/mcp/b.json")
	t.Setenv("DELETED_FILES", "content/rules/c.json\n")

	changed := ChangedFiles()
	if len(changed) != 2 || changed[1] != "content/mcp/b.json" {
		t.Errorf("changed = %v", changed)
	}

	deleted := DeletedFiles()
	if len(deleted) != 1 || deleted[0] != "content/rules/c.json" {
		t.Errorf("deleted = %v", deleted)
	}
}
