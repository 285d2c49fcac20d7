package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultRPCAddress, cfg.RPCAddress)
	require.Equal(t, DefaultQuorumThreshold, cfg.QuorumThreshold)
	require.False(t, cfg.DistinctVoters)
	require.Len(t, cfg.Auth.HMACSecret, 64)
	require.NoError(t, cfg.Validate())

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadParsesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `NetworkName = "bridge-test"
Environment = "staging"
RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
GenesisFile = "genesis.json"
QuorumThreshold = 0.67
DistinctVoters = true
LogFile = "bridged.log"
EventLogDSN = "sqlite://events.db"

[Auth]
Enabled = true
HMACSecret = "topsecret"
Issuer = "ops"
Audience = "bridged"
ClockSkewSeconds = 5

[RateLimit]
RequestsPerMinute = 60
Burst = 10

[Telemetry]
Enabled = true
Endpoint = "collector:4318"
Metrics = false
Traces = true

[Telemetry.Headers]
authorization = "Bearer abc"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bridge-test", cfg.NetworkName)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, 0.67, cfg.QuorumThreshold)
	require.True(t, cfg.DistinctVoters)
	require.Equal(t, DefaultMetricsAddress, cfg.MetricsAddress)
	require.Equal(t, "topsecret", cfg.Auth.HMACSecret)
	require.Equal(t, int64(5), cfg.Auth.ClockSkewSeconds)
	require.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	require.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	require.False(t, cfg.Telemetry.Metrics)
	require.Equal(t, "Bearer abc", cfg.Telemetry.Headers["authorization"])
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("DataDir = \"x\"\nListenAddress = \":6001\"\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "ListenAddress"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.HMACSecret = "secret"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"zero threshold":    func(c *Config) { c.QuorumThreshold = 0 },
		"threshold above 1": func(c *Config) { c.QuorumThreshold = 1.01 },
		"empty data dir":    func(c *Config) { c.DataDir = " " },
		"missing secret":    func(c *Config) { c.Auth.HMACSecret = "" },
		"negative skew":     func(c *Config) { c.Auth.ClockSkewSeconds = -1 },
		"negative rate":     func(c *Config) { c.RateLimit.RequestsPerMinute = -1 },
		"zero burst":        func(c *Config) { c.RateLimit.Burst = 0 },
		"negative backups":  func(c *Config) { c.LogMaxBackups = -1 },
		"unknown dsn":       func(c *Config) { c.EventLogDSN = "mysql://root@localhost/events" },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}

	disabled := valid()
	disabled.Auth.Enabled = false
	disabled.Auth.HMACSecret = ""
	require.NoError(t, disabled.Validate())
}
