// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "gather.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected backend=sqlite, got %s", cfg.Store.Backend)
	}

	if !cfg.Index.StrictTransitions {
		t.Error("expected strict_transitions=true")
	}

	if cfg.Notifications.DefaultLocale != "en" {
		t.Errorf("expected default_locale=en, got %s", cfg.Notifications.DefaultLocale)
	}
}

func TestLoad_RequiresGatherConfig(t *testing.T) {
	t.Setenv("GATHER_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when GATHER_CONFIG not set, got nil")
	}

	expectedMsg := "GATHER_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithGatherConfig(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
root: /test/root
network:
  seed: test-network
`)
	t.Setenv("GATHER_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Network.Seed != "test-network" {
		t.Errorf("expected network seed=test-network, got %s", cfg.Network.Seed)
	}

	// Paths left at their defaults expand against the configured root.
	if cfg.Store.Path != "/test/root/gather.db" {
		t.Errorf("expected store path=/test/root/gather.db, got %s", cfg.Store.Path)
	}
	if cfg.Socket.Path != "/test/root/gather.sock" {
		t.Errorf("expected socket path=/test/root/gather.sock, got %s", cfg.Socket.Path)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

root: /custom/root

store:
  backend: memory
  pool_size: 4
  compression: lz4
  compression_threshold: 1024

network:
  seed: custom-network

agent:
  seed: alice

index:
  strict_transitions: false
  members_order: recency

notifications:
  default_locale: sv
  catalog_dir: ${GATHER_ROOT}/locales

socket:
  path: /custom/gather.sock

log:
  level: warn
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Store.Backend != "memory" || cfg.Store.PoolSize != 4 {
		t.Errorf("unexpected store section: %+v", cfg.Store)
	}

	if cfg.Store.Compression != "lz4" || cfg.Store.CompressionThreshold != 1024 {
		t.Errorf("unexpected compression: %s/%d", cfg.Store.Compression, cfg.Store.CompressionThreshold)
	}

	if cfg.Agent.Seed != "alice" {
		t.Errorf("expected agent seed=alice, got %s", cfg.Agent.Seed)
	}

	if cfg.Index.StrictTransitions {
		t.Error("expected strict_transitions=false")
	}

	if cfg.Index.MembersOrder != "recency" {
		t.Errorf("expected members_order=recency, got %s", cfg.Index.MembersOrder)
	}

	if cfg.Notifications.CatalogDir != "/custom/root/locales" {
		t.Errorf("expected catalog_dir=/custom/root/locales, got %s", cfg.Notifications.CatalogDir)
	}

	if cfg.Socket.Path != "/custom/gather.sock" {
		t.Errorf("expected socket path=/custom/gather.sock, got %s", cfg.Socket.Path)
	}

	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("expected warn level, got %v", cfg.SlogLevel())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

store:
  path: /default/gather.db

index:
  strict_transitions: false

production:
  store:
    path: /prod/gather.db
  index:
    strict_transitions: true
  relay:
    redis_url: redis://cache.internal:6379/2
  log:
    level: error
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Production overrides should be applied.
	if cfg.Store.Path != "/prod/gather.db" {
		t.Errorf("expected path=/prod/gather.db, got %s", cfg.Store.Path)
	}

	if !cfg.Index.StrictTransitions {
		t.Error("expected strict_transitions=true from production override")
	}

	if cfg.Relay.RedisURL != "redis://cache.internal:6379/2" {
		t.Errorf("expected production relay url, got %q", cfg.Relay.RedisURL)
	}
	if cfg.Relay.Channel != "gather:signals" {
		t.Errorf("expected default relay channel, got %q", cfg.Relay.Channel)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("expected level=error, got %s", cfg.Log.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
index:
  strict_transitions: false
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !cfg.Index.StrictTransitions {
		t.Error("production without overrides should force strict transitions")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected level=info, got %s", cfg.Log.Level)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Environment variables do not override config file values.
	t.Setenv("GATHER_ROOT", "/env/root")
	t.Setenv("GATHER_ENVIRONMENT", "staging")

	configPath := writeConfig(t, `
environment: development
root: /file/root
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s (env vars should not override)", cfg.Root)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/gather",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/gather",
		},
		{
			input:    "${GATHER_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			modify: func(c *Config) {
				c.Store.Backend = "postgres"
			},
			wantErr: true,
		},
		{
			name: "sqlite without path",
			modify: func(c *Config) {
				c.Store.Path = ""
			},
			wantErr: true,
		},
		{
			name: "memory without path",
			modify: func(c *Config) {
				c.Store.Backend = "memory"
				c.Store.Path = ""
			},
			wantErr: false,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Store.Compression = "gzip"
			},
			wantErr: true,
		},
		{
			name: "missing network seed",
			modify: func(c *Config) {
				c.Network.Seed = ""
			},
			wantErr: true,
		},
		{
			name: "missing agent seed",
			modify: func(c *Config) {
				c.Agent.Seed = ""
			},
			wantErr: true,
		},
		{
			name: "unknown members order",
			modify: func(c *Config) {
				c.Index.MembersOrder = "random"
			},
			wantErr: true,
		},
		{
			name: "empty socket path",
			modify: func(c *Config) {
				c.Socket.Path = ""
			},
			wantErr: true,
		},
		{
			name: "relay without channel",
			modify: func(c *Config) {
				c.Relay.RedisURL = "redis://localhost:6379/0"
				c.Relay.Channel = ""
			},
			wantErr: true,
		},
		{
			name: "disabled relay without channel",
			modify: func(c *Config) {
				c.Relay.Channel = ""
			},
			wantErr: false,
		},
		{
			name: "remote module",
			modify: func(c *Config) {
				c.Remotes = map[string]string{"assemble": "/run/assemble.sock"}
			},
			wantErr: false,
		},
		{
			name: "remote without socket",
			modify: func(c *Config) {
				c.Remotes = map[string]string{"assemble": ""}
			},
			wantErr: true,
		},
		{
			name: "remote shadows a local module",
			modify: func(c *Config) {
				c.Remotes = map[string]string{"gather": "/run/gather.sock"}
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "loud"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Network.Seed = "network"
			cfg.Agent.Seed = "agent"
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemotesExpandRoot(t *testing.T) {
	configPath := writeConfig(t, `
root: /srv/gather
network:
  seed: network
agent:
  seed: agent
remotes:
  assemble: ${GATHER_ROOT}/assemble.sock
  notifications: /run/notify.sock
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := cfg.Remotes["assemble"]; got != "/srv/gather/assemble.sock" {
		t.Errorf("remotes.assemble = %q, want /srv/gather/assemble.sock", got)
	}
	if got := cfg.Remotes["notifications"]; got != "/run/notify.sock" {
		t.Errorf("remotes.notifications = %q, want /run/notify.sock", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateReportsEveryError(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors for missing seeds")
	}
	for _, field := range []string{"network.seed", "agent.seed"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Root = filepath.Join(tmpDir, "gather")
	cfg.Store.Path = filepath.Join(tmpDir, "data", "gather.db")
	cfg.Socket.Path = filepath.Join(tmpDir, "run", "gather.sock")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Root, filepath.Dir(cfg.Store.Path), filepath.Dir(cfg.Socket.Path)} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
