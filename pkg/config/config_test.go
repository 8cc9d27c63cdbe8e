package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
environment: test
redis:
  addr: localhost:6379
ingest:
  assets: [SOL]
stream:
  websocket_url: wss://example.test/ws
`

func TestLoadFillsStreamDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stream.PingInterval != 30*time.Second {
		t.Fatalf("ping interval = %v, want 30s default", cfg.Stream.PingInterval)
	}
	if cfg.Stream.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect delay = %v, want 5s default", cfg.Stream.ReconnectDelay)
	}
}

func TestLoadFillsQueueAndEngineDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Queue.Workers != 2 || cfg.Queue.RetryLimit != 3 {
		t.Fatalf("queue defaults = %+v", cfg.Queue)
	}
	if cfg.Engine.PumpJumpPct != 5 || cfg.Engine.RSIOverbought != 75 {
		t.Fatalf("engine defaults = %+v", cfg.Engine)
	}
}

func TestLoadRejectsMissingRedis(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\ningest:\n  assets: [SOL]\n"))
	if err == nil {
		t.Fatal("expected error for missing redis addr")
	}
}
