package config

import (
	"fmt"
)

// Validate checks cross-field constraints on a merged configuration.
func Validate(cfg *Config) error {
	if !cfg.Modes.GSM && !cfg.Modes.UMTS && !cfg.Modes.LTE && !cfg.Modes.NR {
		return fmt.Errorf("at least one radio-access mode must be enabled")
	}

	if cfg.Signal.WeakDBm >= cfg.Signal.StrongDBm {
		return fmt.Errorf("signal weak threshold %d dBm must be below strong threshold %d dBm",
			cfg.Signal.WeakDBm, cfg.Signal.StrongDBm)
	}

	if cfg.Scan.LegacyQueryTimeout <= 0 {
		return fmt.Errorf("legacy query timeout must be positive")
	}
	if cfg.Scan.Timeout <= 0 {
		return fmt.Errorf("scan timeout must be positive")
	}
	if cfg.Scan.IntervalSec <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	if cfg.Scan.Periodicity < 1 {
		return fmt.Errorf("scan periodicity must be at least 1")
	}

	if cfg.Registry.RegisterRetries < 0 {
		return fmt.Errorf("register retries must not be negative")
	}
	if cfg.Registry.StrengthRetryInterval <= 0 {
		return fmt.Errorf("strength retry interval must be positive")
	}

	if cfg.Telemetry.EventBufferSize < 1 {
		return fmt.Errorf("event buffer size must be at least 1")
	}
	if cfg.Telemetry.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}

	return nil
}
