package commands

import (
	"os"
	"strings"
	"testing"

	"github.com/diogo/cleansight/internal/config"
)

func TestConfigPathCommand(t *testing.T) {
	path := setupCommand(t)

	out, err := execute(t, "config", "path", "--config", path)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("expected %s, got %q", path, out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := setupCommand(t)

	if _, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("written config unreadable: %v", err)
	}
	if cfg.Client.WindowSize != 10 {
		t.Errorf("expected default window size, got %d", cfg.Client.WindowSize)
	}

	if _, err := execute(t, "config", "init", "--config", path); err == nil {
		t.Error("expected error when the file exists")
	}

	if _, err := execute(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestConfigShowRedactsKey(t *testing.T) {
	path := setupCommand(t)
	t.Setenv("GEMINI_API_KEY", "super-secret")

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Error("the API key must never be printed")
	}
	if !strings.Contains(out, "********") {
		t.Error("expected a redacted key marker")
	}
	if !strings.Contains(out, `"window_size": 10`) {
		t.Errorf("expected client settings in output, got %s", out)
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	setupCommand(t)
	logLevelFlag = "debug"
	logFileFlag = "/tmp/cleansight.log"
	relayURLFlag = "http://example.test/api/gemini"
	personaFlag = "classroom"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/cleansight.log" {
		t.Errorf("log flags not applied: %+v", cfg.Log)
	}
	if cfg.Client.RelayURL != relayURLFlag {
		t.Errorf("relay url not applied: %s", cfg.Client.RelayURL)
	}
	if cfg.Client.PreambleName != "classroom" || cfg.Client.Preamble != "" {
		t.Errorf("persona not applied: %+v", cfg.Client)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := setupCommand(t)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("config file should not exist yet")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Relay.Addr != config.DefaultConfig().Relay.Addr {
		t.Errorf("expected default addr, got %s", cfg.Relay.Addr)
	}
}
