// Package server hosts the bridge over HTTP: the invoke endpoint, operation
// listing, the invocation audit log, and the scheduled gateway health probe.
package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

const (
	projectConfigName = "agentbridge.yaml"
	homeConfigDir     = ".agentbridge"
	homeConfigName    = "config.yaml"
)

// Environment variable overrides for credentials, so secrets stay out of
// config files.
const (
	envClientID     = "AGENTBRIDGE_CLIENT_ID"
	envClientSecret = "AGENTBRIDGE_CLIENT_SECRET"
	envTokenURL     = "AGENTBRIDGE_TOKEN_URL"
	envGatewayURL   = "AGENTBRIDGE_GATEWAY_URL"
)

// Config is the declarative configuration for the bridge host.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Identity IdentityConfig `yaml:"identity"`
	Server   ListenConfig   `yaml:"server"`
	Health   HealthConfig   `yaml:"health"`
	Audit    AuditConfig    `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Signatures optionally replaces the built-in operation table.
	Signatures map[string]bridge.ToolSignature `yaml:"signatures,omitempty"`
}

// GatewayConfig locates the downstream MCP gateway.
type GatewayConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Retry       bridge.BackoffPolicy `yaml:"retry"`
}

// IdentityConfig locates the identity provider and the client credentials.
type IdentityConfig struct {
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	TokenTimeout time.Duration `yaml:"token_timeout"`
	Retry        bridge.BackoffPolicy `yaml:"retry"`

	// CacheTokens opts into the expiry-checked credential cache. The default
	// requests a fresh token per invocation.
	CacheTokens  bool          `yaml:"cache_tokens"`
	SafetyMargin time.Duration `yaml:"safety_margin"`
}

// ListenConfig configures the HTTP listener.
type ListenConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	MaxBody      int64         `yaml:"max_body"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// HealthConfig configures the scheduled gateway probe. Schedule is a
// five-field UTC cron expression; empty disables the probe.
type HealthConfig struct {
	Schedule string        `yaml:"schedule"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuditConfig configures invocation audit persistence. An empty path keeps
// the audit log in memory.
type AuditConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	TraceEndpoint string `yaml:"trace_endpoint"`
	Insecure      bool   `yaml:"insecure"`
}

// DiscoverConfigPath resolves the config location with first-match semantics:
// explicit path, ./agentbridge.yaml, then ~/.agentbridge/config.yaml.
func DiscoverConfigPath(explicitPath string) (string, bool, error) {
	if strings.TrimSpace(explicitPath) != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", false, fmt.Errorf("server: config %s: %w", explicitPath, err)
		}
		return explicitPath, true, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("server: resolve working directory: %w", err)
	}
	candidate := filepath.Join(cwd, projectConfigName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("server: resolve user home: %w", err)
	}
	candidate = filepath.Join(home, homeConfigDir, homeConfigName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true, nil
	}

	return "", false, nil
}

// LoadConfig reads and parses one config file, then applies environment
// overrides and defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("server: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("server: parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnvAndDefaults applies environment overrides and fills defaults
// without reading a config file, for environment-only deployments.
func (c *Config) ApplyEnvAndDefaults() {
	c.applyEnv()
	c.applyDefaults()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envGatewayURL); v != "" {
		c.Gateway.Endpoint = v
	}
	if v := os.Getenv(envTokenURL); v != "" {
		c.Identity.TokenURL = v
	}
	if v := os.Getenv(envClientID); v != "" {
		c.Identity.ClientID = v
	}
	if v := os.Getenv(envClientSecret); v != "" {
		c.Identity.ClientSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Gateway.CallTimeout <= 0 {
		c.Gateway.CallTimeout = 30 * time.Second
	}
	if c.Identity.TokenTimeout <= 0 {
		c.Identity.TokenTimeout = 10 * time.Second
	}
	if c.Identity.Retry.MaxAttempts <= 0 {
		c.Identity.Retry = bridge.DefaultBackoff()
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxBody <= 0 {
		c.Server.MaxBody = 1 << 20
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Health.Timeout <= 0 {
		c.Health.Timeout = 10 * time.Second
	}
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Gateway.Endpoint) == "" {
		return errors.New("server: gateway.endpoint is required")
	}
	if strings.TrimSpace(c.Identity.TokenURL) == "" {
		return errors.New("server: identity.token_url is required")
	}
	if strings.TrimSpace(c.Identity.ClientID) == "" {
		return errors.New("server: identity.client_id is required")
	}
	if c.Health.Schedule != "" {
		if _, err := parseCronExpressionUTC(c.Health.Schedule); err != nil {
			return fmt.Errorf("server: health.schedule: %w", err)
		}
	}
	return nil
}

// BuildRegistry constructs the operation registry from the config's signature
// table, falling back to the built-in catalog.
func (c Config) BuildRegistry() (*bridge.Registry, error) {
	if len(c.Signatures) > 0 {
		return bridge.NewRegistry(c.Signatures)
	}
	return bridge.NewDefaultRegistry()
}
