package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultNetworkName       = "bridge-local"
	DefaultRPCAddress        = ":8080"
	DefaultMetricsAddress    = ":9090"
	DefaultDataDir           = "./bridge-data"
	DefaultQuorumThreshold   = 0.51
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 5
	DefaultRequestsPerMinute = 120
	DefaultBurst             = 20
	DefaultClockSkewSeconds  = 30
)

type Config struct {
	NetworkName     string  `toml:"NetworkName"`
	Environment     string  `toml:"Environment"`
	RPCAddress      string  `toml:"RPCAddress"`
	MetricsAddress  string  `toml:"MetricsAddress"`
	DataDir         string  `toml:"DataDir"`
	GenesisFile     string  `toml:"GenesisFile"`
	QuorumThreshold float64 `toml:"QuorumThreshold"`
	DistinctVoters  bool    `toml:"DistinctVoters"`
	LogFile         string  `toml:"LogFile"`
	LogMaxSizeMB    int     `toml:"LogMaxSizeMB"`
	LogMaxBackups   int     `toml:"LogMaxBackups"`
	// EventLogDSN selects the notification archive: "sqlite://<path>",
	// "postgres://..." or empty to disable.
	EventLogDSN string `toml:"EventLogDSN"`

	Auth      AuthConfig      `toml:"Auth"`
	RateLimit RateLimitConfig `toml:"RateLimit"`
	Telemetry TelemetryConfig `toml:"Telemetry"`
}

// AuthConfig configures bearer-token verification for the RPC server.
type AuthConfig struct {
	Enabled          bool   `toml:"Enabled"`
	HMACSecret       string `toml:"HMACSecret"`
	Issuer           string `toml:"Issuer"`
	Audience         string `toml:"Audience"`
	ClockSkewSeconds int64  `toml:"ClockSkewSeconds"`
}

// RateLimitConfig bounds requests per authenticated caller.
type RateLimitConfig struct {
	RequestsPerMinute int `toml:"RequestsPerMinute"`
	Burst             int `toml:"Burst"`
}

// TelemetryConfig mirrors the OTLP exporter settings.
type TelemetryConfig struct {
	Enabled  bool              `toml:"Enabled"`
	Endpoint string            `toml:"Endpoint"`
	Insecure bool              `toml:"Insecure"`
	Headers  map[string]string `toml:"Headers"`
	Metrics  bool              `toml:"Metrics"`
	Traces   bool              `toml:"Traces"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		NetworkName:     DefaultNetworkName,
		Environment:     "dev",
		RPCAddress:      DefaultRPCAddress,
		MetricsAddress:  DefaultMetricsAddress,
		DataDir:         DefaultDataDir,
		GenesisFile:     "",
		QuorumThreshold: DefaultQuorumThreshold,
		LogMaxSizeMB:    DefaultLogMaxSizeMB,
		LogMaxBackups:   DefaultLogMaxBackups,
		Auth: AuthConfig{
			Enabled:          true,
			Issuer:           "bridgectl",
			Audience:         "bridged",
			ClockSkewSeconds: DefaultClockSkewSeconds,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: DefaultRequestsPerMinute,
			Burst:             DefaultBurst,
		},
		Telemetry: TelemetryConfig{
			Endpoint: "localhost:4318",
			Insecure: true,
			Headers:  map[string]string{},
			Metrics:  true,
			Traces:   true,
		},
	}
}

// Load loads the configuration from the given path. A missing file is
// replaced by the defaults, which are written back to path. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if cfg.QuorumThreshold == 0 {
		cfg.QuorumThreshold = DefaultQuorumThreshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file with a fresh
// token signing secret.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	cfg.Auth.HMACSecret = hex.EncodeToString(secret)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
