// Package sdkconfig implements the façade's ambient configuration
// concern (SPEC_FULL.md §2): a YAML-backed Config carrying per-network
// RPC/node endpoints and decimals, the backend's base URL and
// app-name header, and logging settings, with ETOPAY_*-prefixed
// environment overrides. Grounded on internal/config/config.go,
// defaults.go and env.go, generalized from a fixed eth/bsv/btc/bch
// struct to a keyed map of internal/network.Network values (spec §3's
// "Network is process-global state keyed by string").
package sdkconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/etopay/sigilwallet/internal/network"
)

// NetworkConfig pairs a network.Network with the endpoint the façade
// dials to reach it: an RPC URL for Evm/EvmERC20, a node/indexer URL
// for Stardust. network.Network itself carries no endpoint (spec §3
// keeps Network a pure value describing the chain, not a connection).
type NetworkConfig struct {
	network.Network `yaml:",inline"`
	Endpoint         string `yaml:"endpoint"`
}

// BackendConfig configures the bearer-token REST backend used by
// internal/sharetransport (C3) and the address-upload call in
// generate_new_address (spec §4.11).
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	AppName string `yaml:"app_name"`
}

// LoggingConfig mirrors internal/config.LoggingConfig, feeding
// internal/sdklog.New.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the façade's full ambient configuration, set once via
// set_config (spec §4.11) before any wallet operation is possible.
type Config struct {
	Networks map[string]NetworkConfig `yaml:"networks"`
	Backend  BackendConfig            `yaml:"backend"`
	Logging  LoggingConfig            `yaml:"logging"`
}

// Validate rejects a Config with no networks or a malformed network
// entry, the façade's MissingConfig precondition (spec §4.11).
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("config: at least one network is required")
	}
	for key, n := range c.Networks {
		if n.Key == "" {
			n.Key = key
		}
		if err := n.Validate(); err != nil {
			return err
		}
		if n.Protocol != network.ProtocolStardust && n.Endpoint == "" {
			return fmt.Errorf("network %q: endpoint is required", key)
		}
	}
	return nil
}

// Defaults returns a minimal, empty-networks Config; callers load a
// real one via Load or build one directly before calling set_config.
func Defaults() *Config {
	return &Config{
		Networks: map[string]NetworkConfig{},
		Logging:  LoggingConfig{Level: "error"},
	}
}

// Load reads path as YAML into a Config, applying Defaults first so
// unset sections still have sane zero values.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is supplied by the embedding host, not untrusted input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	ApplyEnvironment(cfg)
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Environment variable names, ETOPAY_*-prefixed: internal/config/env.go's
// SIGIL_* convention renamed to this module's prefix (SPEC_FULL.md §2).
const (
	EnvBackendURL = "ETOPAY_BACKEND_URL"
	EnvAppName    = "ETOPAY_APP_NAME"
	EnvLogLevel   = "ETOPAY_LOG_LEVEL"
	EnvLogFile    = "ETOPAY_LOG_FILE"
)

// ApplyEnvironment overlays ETOPAY_*-prefixed environment variables
// onto cfg, mirroring internal/config/env.go's ApplyEnvironment.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvAppName); v != "" {
		cfg.Backend.AppName = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.File = strings.TrimSpace(v)
	}
}

// DefaultHome returns the default on-disk location for a standalone
// host's config file (the cmd/sigilwallet demo CLI's default), mirroring
// internal/config.DefaultHome.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sigilwallet"
	}
	return filepath.Join(home, ".sigilwallet")
}

// Path returns the default config file path under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}
