package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "123456:test-token"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, DefaultLogFormat)
	}
	if cfg.Bot.Mode != DefaultMode {
		t.Errorf("Bot.Mode = %q, want default %q", cfg.Bot.Mode, DefaultMode)
	}
	if cfg.Bot.SettleDelay != DefaultSettleDelay {
		t.Errorf("Bot.SettleDelay = %v, want default %v", cfg.Bot.SettleDelay, DefaultSettleDelay)
	}
	if cfg.Database.Path != DefaultDBPath {
		t.Errorf("Database.Path = %q, want default %q", cfg.Database.Path, DefaultDBPath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: debug
  format: text
telegram:
  token: "123456:test-token"
  debug_chat_id: -100999
bot:
  settle_delay: 2s
database:
  path: /tmp/custom.db
scheduler:
  tasks:
    db_maintenance:
      enabled: true
      schedule: "0 0 4 * * *"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want debug/text", cfg.Log)
	}
	if cfg.Telegram.DebugChatID != -100999 {
		t.Errorf("Telegram.DebugChatID = %d, want -100999", cfg.Telegram.DebugChatID)
	}
	if cfg.Bot.SettleDelay != 2*time.Second {
		t.Errorf("Bot.SettleDelay = %v, want 2s", cfg.Bot.SettleDelay)
	}
	task, ok := cfg.Scheduler.Tasks["db_maintenance"]
	if !ok || !task.Enabled || task.Schedule != "0 0 4 * * *" {
		t.Errorf("Scheduler.Tasks[db_maintenance] = %+v, want enabled with schedule", task)
	}
}

func TestLoadConfigMissingToken(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: info
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() succeeded without telegram token, want validation error")
	}
	if !strings.Contains(err.Error(), "Token") {
		t.Errorf("LoadConfig() error = %v, want mention of Token", err)
	}
}

func TestLoadConfigWebhookRequiresURL(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "123456:test-token"
bot:
  mode: webhook
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() succeeded in webhook mode without URL, want validation error")
	}
}

func TestLoadConfigInvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: loud
telegram:
  token: "123456:test-token"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() succeeded with invalid log level, want validation error")
	}
}
