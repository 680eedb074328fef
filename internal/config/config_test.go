package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Scan.LegacyQueryTimeout != 300*time.Second {
		t.Errorf("legacy query timeout = %v, want 300s", cfg.Scan.LegacyQueryTimeout)
	}
	if cfg.Scan.Timeout != 60*time.Second {
		t.Errorf("scan timeout = %v, want 60s", cfg.Scan.Timeout)
	}
	if cfg.Scan.IntervalSec != 10 || cfg.Scan.Periodicity != 3 {
		t.Errorf("scan interval/periodicity = %d/%d, want 10/3",
			cfg.Scan.IntervalSec, cfg.Scan.Periodicity)
	}
	if cfg.Signal.WeakDBm != -100 || cfg.Signal.StrongDBm != -60 {
		t.Errorf("signal thresholds = %d/%d, want -100/-60",
			cfg.Signal.WeakDBm, cfg.Signal.StrongDBm)
	}
	if cfg.Registry.RegisterRetries != 2 {
		t.Errorf("register retries = %d, want 2", cfg.Registry.RegisterRetries)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mnr.yaml")
	content := []byte(`
scan:
  enabled: false
  legacyQueryTimeout: 120s
  timeout: 30s
  intervalSec: 5
  periodicity: 2
signal:
  weakDbm: -110
  strongDbm: -70
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Scan.Enabled {
		t.Error("scan.enabled not overridden")
	}
	if cfg.Scan.LegacyQueryTimeout != 120*time.Second {
		t.Errorf("legacy timeout = %v, want 120s", cfg.Scan.LegacyQueryTimeout)
	}
	if cfg.Signal.WeakDBm != -110 || cfg.Signal.StrongDBm != -70 {
		t.Errorf("thresholds = %d/%d, want -110/-70", cfg.Signal.WeakDBm, cfg.Signal.StrongDBm)
	}
	// Untouched sections keep their defaults.
	if cfg.Registry.RegisterRetries != 2 {
		t.Errorf("register retries = %d, want default 2", cfg.Registry.RegisterRetries)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("MNR_SCAN_TIMEOUT", "45s")
	t.Setenv("MNR_API_ADDR", ":9100")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Scan.Timeout != 45*time.Second {
		t.Errorf("scan timeout = %v, want 45s", cfg.Scan.Timeout)
	}
	if cfg.API.Addr != ":9100" {
		t.Errorf("api addr = %q, want :9100", cfg.API.Addr)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := Default()
	cfg.Signal.WeakDBm = -50
	cfg.Signal.StrongDBm = -60
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for inverted thresholds")
	}
}

func TestValidateRejectsNoModes(t *testing.T) {
	cfg := Default()
	cfg.Modes = ModeConfig{}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error with no modes enabled")
	}
}
