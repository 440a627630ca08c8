package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkorobov/roomcast-server/internal/log"
)

func TestLoadWritesAndUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(log.Nop(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Addr != ":4000" || cfg.Delivery.MaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Delivery.RetryInterval != 1500*time.Millisecond {
		t.Fatalf("unexpected retry interval: %v", cfg.Delivery.RetryInterval)
	}

	// A default config file is materialized for the operator to edit.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadReadsFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":9999\"\nlog_level: debug\ndelivery:\n  retry_interval: 100ms\n  max_attempts: 5\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(log.Nop(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.LogLevel != "debug" {
		t.Fatalf("file overrides not applied: %+v", cfg)
	}
	if cfg.Delivery.RetryInterval != 100*time.Millisecond || cfg.Delivery.MaxAttempts != 5 {
		t.Fatalf("delivery overrides not applied: %+v", cfg.Delivery)
	}
	// Untouched keys keep their defaults.
	if cfg.DatabasePath != "roomcast.db" {
		t.Fatalf("default lost: %+v", cfg)
	}
}

func TestLoadClampsInvalidDeliveryValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("delivery:\n  retry_interval: 0s\n  max_attempts: -2\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(log.Nop(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Delivery.RetryInterval != 1500*time.Millisecond || cfg.Delivery.MaxAttempts != 3 {
		t.Fatalf("invalid delivery values not clamped: %+v", cfg.Delivery)
	}
}
