package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{DataDir: "/srv/stickerd", DeviceName: "sticker-bot"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DataDir != "/srv/stickerd" {
		t.Errorf("DataDir = %q, want /srv/stickerd", loaded.DataDir)
	}
	if loaded.DeviceName != "sticker-bot" {
		t.Errorf("DeviceName = %q, want sticker-bot", loaded.DeviceName)
	}
	// Unset fields are defaulted relative to the data dir.
	if loaded.StickersDir != filepath.Join("/srv/stickerd", "stickers") {
		t.Errorf("StickersDir = %q, want default under data dir", loaded.StickersDir)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	cfg.applyDefaults()

	if got := cfg.DBPath(); got != "/data/stickerd.db" {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.CredentialDBPath(); got != "/data/session.db" {
		t.Errorf("CredentialDBPath = %q", got)
	}
	if got := cfg.LogPath(); got != "/data/logs/stickerd.log" {
		t.Errorf("LogPath = %q", got)
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
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
