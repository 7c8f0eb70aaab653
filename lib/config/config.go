// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the configuration of a gather node.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Root is the base directory for node data. ${GATHER_ROOT} in other
	// paths expands to it.
	Root string `yaml:"root"`

	Store         StoreConfig         `yaml:"store"`
	Network       NetworkConfig       `yaml:"network"`
	Agent         AgentConfig         `yaml:"agent"`
	Index         IndexConfig         `yaml:"index"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Socket        SocketConfig        `yaml:"socket"`
	Relay         RelayConfig         `yaml:"relay"`
	Log           LogConfig           `yaml:"log"`

	// Remotes maps module names served by other processes to the Unix
	// socket each listens on. Calls to those modules are forwarded.
	Remotes map[string]string `yaml:"remotes"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Store         *StoreConfig         `yaml:"store,omitempty"`
	Index         *IndexConfig         `yaml:"index,omitempty"`
	Notifications *NotificationsConfig `yaml:"notifications,omitempty"`
	Socket        *SocketConfig        `yaml:"socket,omitempty"`
	Relay         *RelayConfig         `yaml:"relay,omitempty"`
	Log           *LogConfig           `yaml:"log,omitempty"`
}

// StoreConfig selects and tunes the record store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: sqlite
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	// Default: ${GATHER_ROOT}/gather.db
	Path string `yaml:"path"`

	// PoolSize is the number of SQLite connections. Zero means one per
	// CPU.
	PoolSize int `yaml:"pool_size"`

	// Compression is "none", "lz4", or "zstd".
	// Default: zstd
	Compression string `yaml:"compression"`

	// CompressionThreshold is the smallest payload, in bytes, that is
	// compressed.
	// Default: 256
	CompressionThreshold int `yaml:"compression_threshold"`
}

// NetworkConfig identifies the shared store this node joins.
type NetworkConfig struct {
	Seed string `yaml:"seed"`
}

// AgentConfig identifies the participant this node writes as.
type AgentConfig struct {
	Seed string `yaml:"seed"`
}

// IndexConfig tunes the lifecycle indices.
type IndexConfig struct {
	// StrictTransitions rejects category moves the lifecycle does not
	// declare.
	// Default: true
	StrictTransitions bool `yaml:"strict_transitions"`

	// MembersOrder is "store" (append order) or "recency" (newest
	// first).
	// Default: store
	MembersOrder string `yaml:"members_order"`
}

// NotificationsConfig configures alert localization.
type NotificationsConfig struct {
	// DefaultLocale is used when a request names no locale.
	// Default: en
	DefaultLocale string `yaml:"default_locale"`

	// CatalogDir, when set, replaces the builtin translation units
	// with the *.jsonc files of this directory.
	CatalogDir string `yaml:"catalog_dir"`
}

// SocketConfig configures the module-call socket.
type SocketConfig struct {
	// Path is the Unix socket path.
	// Default: ${GATHER_ROOT}/gather.sock
	Path string `yaml:"path"`
}

// RelayConfig configures publishing of index signals to Redis.
type RelayConfig struct {
	// RedisURL is a redis:// URL. Empty disables the relay.
	RedisURL string `yaml:"redis_url"`

	// Channel is the pub/sub channel signals are published on.
	// Default: gather:signals
	Channel string `yaml:"channel"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: debug (development), info (production)
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "gather")

	return &Config{
		Environment: Development,
		Root:        defaultRoot,
		Store: StoreConfig{
			Backend:              "sqlite",
			Path:                 "${GATHER_ROOT}/gather.db",
			Compression:          "zstd",
			CompressionThreshold: 256,
		},
		Index: IndexConfig{
			StrictTransitions: true,
			MembersOrder:      "store",
		},
		Notifications: NotificationsConfig{
			DefaultLocale: "en",
		},
		Socket: SocketConfig{
			Path: "${GATHER_ROOT}/gather.sock",
		},
		Relay: RelayConfig{
			Channel: "gather:signals",
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// Load loads configuration from GATHER_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if GATHER_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("GATHER_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("GATHER_CONFIG environment variable not set; " +
			"set it to the path of your gather.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${VAR} in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: strict indices, quieter logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Index: &IndexConfig{
					StrictTransitions: true,
				},
				Log: &LogConfig{
					Level: "info",
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Store != nil {
		if overrides.Store.Backend != "" {
			c.Store.Backend = overrides.Store.Backend
		}
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
		if overrides.Store.Compression != "" {
			c.Store.Compression = overrides.Store.Compression
		}
		if overrides.Store.CompressionThreshold != 0 {
			c.Store.CompressionThreshold = overrides.Store.CompressionThreshold
		}
	}

	if overrides.Index != nil {
		// StrictTransitions is a bool, so we always apply it from overrides.
		c.Index.StrictTransitions = overrides.Index.StrictTransitions
		if overrides.Index.MembersOrder != "" {
			c.Index.MembersOrder = overrides.Index.MembersOrder
		}
	}

	if overrides.Notifications != nil {
		if overrides.Notifications.DefaultLocale != "" {
			c.Notifications.DefaultLocale = overrides.Notifications.DefaultLocale
		}
		if overrides.Notifications.CatalogDir != "" {
			c.Notifications.CatalogDir = overrides.Notifications.CatalogDir
		}
	}

	if overrides.Socket != nil && overrides.Socket.Path != "" {
		c.Socket.Path = overrides.Socket.Path
	}

	if overrides.Relay != nil {
		if overrides.Relay.RedisURL != "" {
			c.Relay.RedisURL = overrides.Relay.RedisURL
		}
		if overrides.Relay.Channel != "" {
			c.Relay.Channel = overrides.Relay.Channel
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"GATHER_ROOT": c.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["GATHER_ROOT"] = c.Root // Update for dependent paths.

	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Notifications.CatalogDir = expandVars(c.Notifications.CatalogDir, vars)
	c.Socket.Path = expandVars(c.Socket.Path, vars)
	for module, path := range c.Remotes {
		c.Remotes[module] = expandVars(path, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	backends      = []string{"memory", "sqlite"}
	compressions  = []string{"none", "lz4", "zstd"}
	membersOrders = []string{"store", "recency"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if !slices.Contains(backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend must be one of: %v", backends))
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required for the sqlite backend"))
	}
	if c.Store.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("store.pool_size must not be negative"))
	}
	if !slices.Contains(compressions, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressions))
	}
	if c.Store.CompressionThreshold < 0 {
		errs = append(errs, fmt.Errorf("store.compression_threshold must not be negative"))
	}

	if c.Network.Seed == "" {
		errs = append(errs, fmt.Errorf("network.seed is required"))
	}
	if c.Agent.Seed == "" {
		errs = append(errs, fmt.Errorf("agent.seed is required"))
	}

	if !slices.Contains(membersOrders, c.Index.MembersOrder) {
		errs = append(errs, fmt.Errorf("index.members_order must be one of: %v", membersOrders))
	}

	if c.Notifications.DefaultLocale == "" {
		errs = append(errs, fmt.Errorf("notifications.default_locale is required"))
	}

	if c.Socket.Path == "" {
		errs = append(errs, fmt.Errorf("socket.path is required"))
	}

	if c.Relay.RedisURL != "" && c.Relay.Channel == "" {
		errs = append(errs, fmt.Errorf("relay.channel is required when relay.redis_url is set"))
	}

	for _, module := range slices.Sorted(maps.Keys(c.Remotes)) {
		if module == "gather" || module == "alerts" {
			errs = append(errs, fmt.Errorf("remotes.%s: module is served by this node", module))
		} else if c.Remotes[module] == "" {
			errs = append(errs, fmt.Errorf("remotes.%s: socket path is required", module))
		}
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel returns the configured log level. An unknown level is
// info; Validate rejects it.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// EnsurePaths creates the directories holding the database and the
// socket if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Root, filepath.Dir(c.Socket.Path)}
	if c.Store.Backend == "sqlite" {
		paths = append(paths, filepath.Dir(c.Store.Path))
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
