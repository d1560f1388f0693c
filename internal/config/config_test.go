package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SSH.Port != "2222" || s.SSH.Host != "::" {
		t.Errorf("Expected default ssh address, got %s:%s", s.SSH.Host, s.SSH.Port)
	}
	if s.Web.Port != "8080" {
		t.Errorf("Expected web port 8080, got %s", s.Web.Port)
	}
	if s.Store.Driver != "none" || s.Store.Table != "game_results" {
		t.Errorf("Unexpected store defaults %+v", s.Store)
	}
	if s.Store.Timeout != 10*time.Second {
		t.Errorf("Expected 10s store timeout, got %v", s.Store.Timeout)
	}
	if !s.Audio.Enabled || s.Audio.Volume != 0.5 {
		t.Errorf("Unexpected audio defaults %+v", s.Audio)
	}
	if s.Log.Level != "info" || s.Log.MaxSize != 10 {
		t.Errorf("Unexpected log defaults %+v", s.Log)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLICKTEST_SSH_PORT", "2300")
	t.Setenv("CLICKTEST_STORE_DRIVER", "rest")
	t.Setenv("CLICKTEST_STORE_TIMEOUT", "3s")
	t.Setenv("CLICKTEST_AUDIO_ENABLED", "false")
	t.Setenv("CLICKTEST_GAME_SEED", "42")
	t.Setenv("WEB_PORT", "9090")

	s, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SSH.Port != "2300" {
		t.Errorf("Expected ssh port from env, got %s", s.SSH.Port)
	}
	if s.Store.Driver != "rest" || s.Store.Timeout != 3*time.Second {
		t.Errorf("Unexpected store settings %+v", s.Store)
	}
	if s.Audio.Enabled {
		t.Error("Expected audio disabled")
	}
	if s.Game.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", s.Game.Seed)
	}
	if s.Web.Port != "9090" {
		t.Errorf("Expected legacy WEB_PORT to apply, got %s", s.Web.Port)
	}
}

func TestPrefixedBeatsLegacy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SSH_HOST", "legacy")
	t.Setenv("CLICKTEST_SSH_HOST", "new")

	s, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SSH.Host != "new" {
		t.Errorf("Expected prefixed variable to win, got %s", s.SSH.Host)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "clicktest.yaml"), `
log:
  level: debug
  json: true
store:
  driver: file
  path: /var/lib/clicktest/results.jsonl
audio:
  volume: 0.8
`)
	t.Setenv("CLICKTEST_LOG_LEVEL", "warn")

	l := NewLoader("")
	s, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.ConfigFile() == "" {
		t.Error("Expected config file to be found")
	}
	if s.Log.Level != "warn" {
		t.Errorf("Expected env to override file, got %s", s.Log.Level)
	}
	if !s.Log.JSON {
		t.Error("Expected json logging from file")
	}
	if s.Store.Driver != "file" || s.Store.Path != "/var/lib/clicktest/results.jsonl" {
		t.Errorf("Unexpected store settings %+v", s.Store)
	}
	if s.Audio.Volume != 0.8 {
		t.Errorf("Expected volume 0.8, got %f", s.Audio.Volume)
	}
	if s.SSH.Port != "2222" {
		t.Errorf("Expected default for unset key, got %s", s.SSH.Port)
	}
}

func TestExplicitMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clicktest.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	changed := make(chan Settings, 4)
	l.Watch(func(s Settings) { changed <- s })

	writeFile(t, path, "log:\n  level: debug\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-changed:
			if s.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("Expected a change notification with the new level")
		}
	}
}
