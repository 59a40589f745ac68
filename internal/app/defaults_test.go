package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/custom/config.toml")
		t.Setenv(EnvHome, "/custom/talentflow")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/talentflow" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/talentflow")
		}
		if defaults["log_dir"] != "/custom/talentflow/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/talentflow/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvHome, "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		wantConfig := filepath.Join(homeDir, ".config", "talentflow.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "talentflow")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("TALENTFLOW_HOME=/from/dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvHome, "")
	os.Unsetenv(EnvHome)

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv(EnvHome); got != "/from/dotenv" {
		t.Errorf("%s = %q, want /from/dotenv", EnvHome, got)
	}

	t.Setenv(EnvHome, "/already/set")
	if err := LoadEnv(envFile); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv(EnvHome); got != "/already/set" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}
