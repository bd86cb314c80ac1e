package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:3000" {
		t.Errorf("APIAddr = %q, want 127.0.0.1:3000", cfg.APIAddr)
	}
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want 100", cfg.MaxHistory)
	}
	if !cfg.LogContent {
		t.Error("LogContent = false, want true")
	}
	if cfg.TimerInterval != 30*time.Second {
		t.Errorf("TimerInterval = %v, want 30s", cfg.TimerInterval)
	}
	if cfg.WSPath != "/" {
		t.Errorf("WSPath = %q, want /", cfg.WSPath)
	}
	if want := filepath.Join(home, ".local", "share", "msglog", "state.json"); cfg.StatePath != want {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, want)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MSGLOG_MAX_HISTORY", "7")

	path := writeTestConfig(t, `api-port: 3100
max-history: 50
log-content: false
timer-interval: 5s
ws-path: /ws
state-path: ~/msglog/state.json
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:3100" {
		t.Errorf("APIAddr = %q, want 127.0.0.1:3100", cfg.APIAddr)
	}
	if cfg.MaxHistory != 7 {
		t.Errorf("MaxHistory = %d, want 7 (env wins)", cfg.MaxHistory)
	}
	if cfg.LogContent {
		t.Error("LogContent = true, want false")
	}
	if cfg.TimerInterval != 5*time.Second {
		t.Errorf("TimerInterval = %v, want 5s", cfg.TimerInterval)
	}
	if cfg.WSPath != "/ws" {
		t.Errorf("WSPath = %q, want /ws", cfg.WSPath)
	}
	if want := filepath.Join(home, "msglog", "state.json"); cfg.StatePath != want {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, want)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		body string
	}{
		{"port zero", "api-port: 0\n"},
		{"port too large", "api-port: 70000\n"},
		{"negative history", "max-history: -1\n"},
		{"negative timer", "timer-interval: -1s\n"},
		{"relative ws path", "ws-path: ws\n"},
		{"ws path on api", "ws-path: /api/ws\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(writeTestConfig(t, tt.body)); err == nil {
				t.Errorf("loadConfig(%q) error = nil, want error", tt.body)
			}
		})
	}
}

func TestWriteConfigYAML(t *testing.T) {
	cfg := appConfig{
		APIEnabled:    true,
		APIAddr:       "127.0.0.1:3000",
		WSPath:        "/",
		MaxHistory:    100,
		TimerInterval: 30 * time.Second,
		ConfigPath:    "/etc/msglog.yml",
	}
	var buf bytes.Buffer
	if err := writeConfig(&buf, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"api-addr: 127.0.0.1:3000", "max-history: 100", "timer-interval: 30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "msglog.yml") {
		t.Errorf("output leaks ConfigPath:\n%s", out)
	}
}
