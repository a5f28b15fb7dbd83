package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfigYAML = `
gateway:
  endpoint: https://gateway.example.com/mcp
  call_timeout: 15s

identity:
  token_url: https://idp.example.com/oauth2/token
  client_id: bridge-client
  client_secret: hush
  cache_tokens: true
  safety_margin: 45s

server:
  port: 9090

health:
  schedule: "*/5 * * * *"

audit:
  sqlite_path: /tmp/bridge-audit.db
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigParsesAndDefaults(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Gateway.Endpoint != "https://gateway.example.com/mcp" {
		t.Fatalf("gateway endpoint = %q", cfg.Gateway.Endpoint)
	}
	if cfg.Gateway.CallTimeout != 15*time.Second {
		t.Fatalf("call timeout = %v", cfg.Gateway.CallTimeout)
	}
	if !cfg.Identity.CacheTokens || cfg.Identity.SafetyMargin != 45*time.Second {
		t.Fatalf("identity = %+v", cfg.Identity)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}

	// Unset fields fall back to defaults.
	if cfg.Identity.TokenTimeout != 10*time.Second {
		t.Fatalf("token timeout default = %v", cfg.Identity.TokenTimeout)
	}
	if cfg.Identity.Retry.MaxAttempts != 3 {
		t.Fatalf("identity retry default = %+v", cfg.Identity.Retry)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("host default = %q", cfg.Server.Host)
	}
	if cfg.Server.MaxBody != 1<<20 {
		t.Fatalf("max body default = %d", cfg.Server.MaxBody)
	}
	if cfg.Health.Timeout != 10*time.Second {
		t.Fatalf("health timeout default = %v", cfg.Health.Timeout)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	t.Setenv(envClientID, "env-client")
	t.Setenv(envClientSecret, "env-secret")
	t.Setenv(envTokenURL, "https://env.example.com/token")
	t.Setenv(envGatewayURL, "https://env.example.com/mcp")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Identity.ClientID != "env-client" || cfg.Identity.ClientSecret != "env-secret" {
		t.Fatalf("identity = %+v", cfg.Identity)
	}
	if cfg.Identity.TokenURL != "https://env.example.com/token" {
		t.Fatalf("token url = %q", cfg.Identity.TokenURL)
	}
	if cfg.Gateway.Endpoint != "https://env.example.com/mcp" {
		t.Fatalf("gateway endpoint = %q", cfg.Gateway.Endpoint)
	}
}

func TestConfigValidateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{name: "missing gateway endpoint", mutate: func(cfg *Config) { cfg.Gateway.Endpoint = "" }},
		{name: "missing token url", mutate: func(cfg *Config) { cfg.Identity.TokenURL = "" }},
		{name: "missing client id", mutate: func(cfg *Config) { cfg.Identity.ClientID = "" }},
		{name: "bad cron schedule", mutate: func(cfg *Config) { cfg.Health.Schedule = "whenever" }},
		{name: "timezone cron schedule", mutate: func(cfg *Config) { cfg.Health.Schedule = "CRON_TZ=UTC * * * * *" }},
	}

	path := writeTestConfig(t, testConfigYAML)
	base, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() error = nil, want non-nil")
			}
		})
	}
}

func TestConfigBuildRegistryDefaultsToCatalog(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	if got := len(registry.OperationIDs()); got != 6 {
		t.Fatalf("operations = %d, want 6", got)
	}
}

func TestConfigBuildRegistryFromSignatureOverrides(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML+`
signatures:
  pingTool:
    tool_id: Custom___Ping
    parameters:
      - canonical_name: target
        type: string
        required: true
      - canonical_name: count
        type: integer
        default: 3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	registry, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	ids := registry.OperationIDs()
	if len(ids) != 1 || ids[0] != "pingTool" {
		t.Fatalf("operations = %v, want [pingTool]", ids)
	}
	sig, _ := registry.Resolve("pingTool")
	if sig.ToolID != "Custom___Ping" {
		t.Fatalf("tool id = %q", sig.ToolID)
	}
	if sig.Parameters[1].Default != int64(3) {
		t.Fatalf("default = %v (%T), want int64(3)", sig.Parameters[1].Default, sig.Parameters[1].Default)
	}
}

func TestDiscoverConfigPathExplicitMissing(t *testing.T) {
	if _, _, err := DiscoverConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("DiscoverConfigPath() error = nil for missing explicit path")
	}
}
