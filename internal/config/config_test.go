package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.BaseURL = "https://market.example.com/api"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.BaseURL != "https://market.example.com/api" {
		t.Errorf("BaseURL = %q", loaded.BaseURL)
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != Default().BaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.NotifyPollInterval() != 30*time.Second {
		t.Errorf("NotifyPollInterval = %v, want 30s", cfg.NotifyPollInterval())
	}
	if cfg.ChatPollInterval() != 3*time.Second {
		t.Errorf("ChatPollInterval = %v, want 3s", cfg.ChatPollInterval())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CRAFT_BASE_URL", "https://override.example.com/api")
	t.Setenv("CRAFT_CHAT_POLL_SECONDS", "10")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != "https://override.example.com/api" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if cfg.ChatPollInterval() != 10*time.Second {
		t.Errorf("ChatPollInterval = %v, want 10s", cfg.ChatPollInterval())
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
