package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCLIConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	if err := saveCLIConfig(CLIConfig{ServerURL: "http://office:9090"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "realty", "cli.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := loadCLIConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ServerURL != "http://office:9090" {
		t.Errorf("server_url = %q", loaded.ServerURL)
	}
}

func TestCLIConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadCLIConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.ServerURL != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestGetServerURLPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REALTY_SERVER_URL", "")
	flagServer = ""
	t.Cleanup(func() { flagServer = "" })

	if got := getServerURL(); got != defaultServerURL {
		t.Errorf("default url = %q", got)
	}

	if err := saveCLIConfig(CLIConfig{ServerURL: "http://from-config:1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := getServerURL(); got != "http://from-config:1" {
		t.Errorf("config url = %q", got)
	}

	t.Setenv("REALTY_SERVER_URL", "http://from-env:2")
	if got := getServerURL(); got != "http://from-env:2" {
		t.Errorf("env url = %q", got)
	}

	flagServer = "http://from-flag:3"
	if got := getServerURL(); got != "http://from-flag:3" {
		t.Errorf("flag url = %q", got)
	}
}

func TestRemoteSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand("remote", "set", "https://realty.example.com")
	if err != nil {
		t.Fatalf("remote set: %v", err)
	}
	if out != "Server set to https://realty.example.com\n" {
		t.Errorf("output = %q", out)
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://realty.example.com" {
		t.Errorf("saved url = %q", cfg.ServerURL)
	}
}
