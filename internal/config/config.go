package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the complete service configuration.
type Config struct {
	Modes     ModeConfig      `yaml:"modes"`
	Scan      ScanConfig      `yaml:"scan"`
	Signal    SignalConfig    `yaml:"signal"`
	Registry  RegistryConfig  `yaml:"registry"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	API       APIConfig       `yaml:"api"`
	Audit     AuditConfig     `yaml:"audit"`

	// ProvisionDB is the path of the SQLite operator-name database used by
	// the name normalizer. Empty disables normalization lookups.
	ProvisionDB string `yaml:"provisionDb"`
}

// ModeConfig enables radio-access modes for registration and scanning.
type ModeConfig struct {
	GSM  bool `yaml:"gsm"`
	UMTS bool `yaml:"umts"`
	LTE  bool `yaml:"lte"`
	NR   bool `yaml:"nr"`
}

// ScanConfig holds the network-scan protocol knobs.
type ScanConfig struct {
	// Enabled gates the incremental-scan fallback; when false only the
	// legacy operator query is used.
	Enabled bool `yaml:"enabled"`

	// LegacyQueryTimeout bounds the legacy operator query.
	LegacyQueryTimeout time.Duration `yaml:"legacyQueryTimeout"`

	// Timeout is the hard deadline of an incremental scan; accumulated
	// partial results are delivered when it fires.
	Timeout time.Duration `yaml:"timeout"`

	// IntervalSec and Periodicity are passed through in the scan request.
	IntervalSec int `yaml:"intervalSec"`
	Periodicity int `yaml:"periodicity"`
}

// SignalConfig holds the percent-mapping thresholds in dBm.
type SignalConfig struct {
	WeakDBm   int `yaml:"weakDbm"`
	StrongDBm int `yaml:"strongDbm"`
}

// RegistryConfig holds registration-operation behavior.
type RegistryConfig struct {
	// RegisterRetries is the bounded retry count for registration-mode
	// requests that fail on transport.
	RegisterRetries int `yaml:"registerRetries"`

	// StrengthRetryInterval is the fixed backoff between strength-query
	// retries while a caller query is pending.
	StrengthRetryInterval time.Duration `yaml:"strengthRetryInterval"`
}

// TelemetryConfig holds SSE hub settings.
type TelemetryConfig struct {
	EventBufferSize   int           `yaml:"eventBufferSize"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	HeartbeatJitter   time.Duration `yaml:"heartbeatJitter"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`

	// AuthSecret enables HS256 bearer-token auth when set. AuthPublicKey
	// (PEM) enables RS256 instead; both empty disables auth.
	AuthSecret    string `yaml:"authSecret"`
	AuthPublicKey string `yaml:"authPublicKey"`
}

// AuditConfig holds audit-log rotation settings.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Modes: ModeConfig{
			GSM:  true,
			UMTS: true,
			LTE:  true,
			NR:   false,
		},
		Scan: ScanConfig{
			Enabled:            true,
			LegacyQueryTimeout: 300 * time.Second,
			Timeout:            60 * time.Second,
			IntervalSec:        10,
			Periodicity:        3,
		},
		Signal: SignalConfig{
			WeakDBm:   -100,
			StrongDBm: -60,
		},
		Registry: RegistryConfig{
			RegisterRetries:       2,
			StrengthRetryInterval: 2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			EventBufferSize:   50,
			HeartbeatInterval: 15 * time.Second,
			HeartbeatJitter:   2 * time.Second,
		},
		API: APIConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load merges Default() + optional YAML file at path + MNR_* env overrides,
// then validates. An empty path skips the file layer; a missing file at a
// non-empty path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies MNR_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MNR_SCAN_ENABLED"); v != "" {
		cfg.Scan.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("MNR_SCAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.Timeout = d
		}
	}
	if v := os.Getenv("MNR_SCAN_LEGACY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.LegacyQueryTimeout = d
		}
	}
	if v := os.Getenv("MNR_STRENGTH_RETRY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Registry.StrengthRetryInterval = d
		}
	}
	if v := os.Getenv("MNR_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("MNR_API_AUTH_SECRET"); v != "" {
		cfg.API.AuthSecret = v
	}
	if v := os.Getenv("MNR_AUDIT_DIR"); v != "" {
		cfg.Audit.Dir = v
	}
	if v := os.Getenv("MNR_PROVISION_DB"); v != "" {
		cfg.ProvisionDB = v
	}
}
